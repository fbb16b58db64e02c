package module

import "github.com/Scotts-Thoughts/fury-cutter/internal/platform/config"

// Options holds configuration settings for the analysis module.
// Zero geometry fields defer to the scan and refine defaults
type Options struct {
	Workers    int
	DenseStep  int
	SparseStep int
	DenseUntil int
	JumpBack   int
	Downscale  float64

	// Recognizer tuning handed to the probing source
	PSM      int
	Lang     string
	Binarize int
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	af := cfg.Prefix("CORE_ANALYSIS_")
	return Options{
		Workers:    af.MayInt("WORKERS", 0),
		DenseStep:  af.MayInt("DENSE_STEP", 0),
		SparseStep: af.MayInt("SPARSE_STEP", 0),
		DenseUntil: af.MayInt("DENSE_UNTIL", 0),
		JumpBack:   af.MayInt("JUMP_BACK", 0),
		Downscale:  af.MayFloat64("DOWNSCALE", 0.25),
		PSM:        af.MayInt("OCR_PSM", 7),
		Lang:       af.MayString("OCR_LANG", ""),
		Binarize:   af.MayInt("OCR_BINARIZE", 0),
	}
}
