package quality

import (
	"image"
	"math"
	"sync"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/stat"
)

// Thresholds for capture problems worth telling the user about
type Thresholds struct {
	MinBrightness        float64
	MaxBrightness        float64
	MinLaplacianVariance float64
	// SampleSide is the longest side of the gray copy metrics are computed on
	SampleSide int
}

// DefaultThresholds returns thresholds tuned for handheld phone photos
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinBrightness:        60.0,
		MaxBrightness:        225.0,
		MinLaplacianVariance: 100.0,
		SampleSide:           512,
	}
}

// Report holds capture metrics for one image
type Report struct {
	Brightness        float64 `json:"brightness"`
	BrightnessStdDev  float64 `json:"brightness_std_dev"`
	LaplacianVariance float64 `json:"laplacian_variance"`

	TooDark   bool `json:"too_dark"`
	TooBright bool `json:"too_bright"`
	Blurry    bool `json:"blurry"`
}

// Hints returns speech-friendly advice for the problems found, in a stable order
func (r Report) Hints() []string {
	var hints []string
	if r.TooDark {
		hints = append(hints, "Görüntü çok karanlık, daha aydınlık bir ortamda tekrar deneyin.")
	}
	if r.TooBright {
		hints = append(hints, "Görüntü çok parlak, ışık kaynağını arkanıza almayı deneyin.")
	}
	if r.Blurry {
		hints = append(hints, "Görüntü bulanık, telefonu sabit tutarak tekrar çekin.")
	}
	return hints
}

// Assessor computes capture metrics on normalized images
type Assessor struct {
	thresholds Thresholds
	slicePool  sync.Pool
}

// NewAssessor creates an assessor with the given thresholds
func NewAssessor(thresholds Thresholds) *Assessor {
	if thresholds.SampleSide <= 0 {
		thresholds.SampleSide = DefaultThresholds().SampleSide
	}
	return &Assessor{
		thresholds: thresholds,
		slicePool: sync.Pool{
			New: func() interface{} {
				return make([]float64, 0, 1024)
			},
		},
	}
}

// Assess measures brightness and sharpness of img
func (a *Assessor) Assess(img image.Image) Report {
	gray := a.sample(img)
	b := gray.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return Report{}
	}

	mean, std := a.brightness(gray)
	lapVar := a.laplacianVariance(gray)

	report := Report{
		Brightness:        mean,
		BrightnessStdDev:  std,
		LaplacianVariance: lapVar,
		TooDark:           mean < a.thresholds.MinBrightness,
		TooBright:         mean > a.thresholds.MaxBrightness,
	}
	// flat frames have no edges to measure; darkness or glare already explains them
	if b.Dx() >= 3 && b.Dy() >= 3 && !report.TooDark && !report.TooBright {
		report.Blurry = lapVar < a.thresholds.MinLaplacianVariance
	}
	return report
}

// sample returns a gray copy whose longest side is at most SampleSide
func (a *Assessor) sample(img image.Image) *image.Gray {
	sb := img.Bounds()
	w, h := sb.Dx(), sb.Dy()
	side := a.thresholds.SampleSide
	if w > side || h > side {
		if w >= h {
			h = max(1, h*side/w)
			w = side
		} else {
			w = max(1, w*side/h)
			h = side
		}
	}

	gray := image.NewGray(image.Rect(0, 0, w, h))
	if w == sb.Dx() && h == sb.Dy() {
		draw.Draw(gray, gray.Bounds(), img, sb.Min, draw.Src)
		return gray
	}
	draw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, sb, draw.Src, nil)
	return gray
}

func (a *Assessor) brightness(gray *image.Gray) (float64, float64) {
	data := a.slicePool.Get().([]float64)
	defer func() { a.slicePool.Put(data[:0]) }()

	b := gray.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			data = append(data, float64(gray.GrayAt(x, y).Y))
		}
	}
	mean, variance := stat.MeanVariance(data, nil)
	if len(data) < 2 {
		return mean, 0
	}
	return mean, math.Sqrt(variance)
}

// laplacianVariance applies the [0 1 0; 1 -4 1; 0 1 0] kernel and returns the variance of the response
func (a *Assessor) laplacianVariance(gray *image.Gray) float64 {
	b := gray.Bounds()
	width, height := b.Dx(), b.Dy()
	if width < 3 || height < 3 {
		return 0
	}

	data := a.slicePool.Get().([]float64)
	defer func() { a.slicePool.Put(data[:0]) }()

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			center := float64(gray.GrayAt(x, y).Y)
			top := float64(gray.GrayAt(x, y-1).Y)
			bottom := float64(gray.GrayAt(x, y+1).Y)
			left := float64(gray.GrayAt(x-1, y).Y)
			right := float64(gray.GrayAt(x+1, y).Y)
			data = append(data, -4*center+top+bottom+left+right)
		}
	}

	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}
