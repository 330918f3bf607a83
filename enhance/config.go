package enhance

// Config controls the optional stages of the mask-based pipelines.
type Config struct {
	// Normalization applies blind analytic normalization to the GEV
	// beamforming vector before it is applied.
	Normalization bool `json:"normalization"`

	// Regularization is added to the diagonal of the noise PSD before
	// the MVDR solve. Zero disables it.
	Regularization float64 `json:"regularization"`
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() *Config {
	return &Config{
		Normalization:  false,
		Regularization: 0,
	}
}
