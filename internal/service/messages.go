package service

import "go-vision-assistant/internal/analysis"

// User-facing messages are read aloud by the client, so they are kept in Turkish.
type modeMessages struct {
	empty   string
	failure string
}

var messages = map[analysis.Mode]modeMessages{
	analysis.ModeShelf: {
		empty:   "Analiz sonucu alınamadı",
		failure: "Analiz sırasında hata oluştu",
	},
	analysis.ModeNavigation: {
		empty:   "Navigasyon analizi sonucu alınamadı",
		failure: "Navigasyon analizi sırasında hata oluştu",
	},
	analysis.ModeOCR: {
		empty:   "Metin okuması sonucu alınamadı",
		failure: "Metin okuma sırasında hata oluştu",
	},
}

// ImagePreparationMessage is reported when an upload cannot be turned into an image
const ImagePreparationMessage = "Görsel işlenemedi, lütfen geçerli bir fotoğraf yükleyin"

func messagesFor(mode analysis.Mode) modeMessages {
	return messages[mode]
}
