package localstt

// Config captures runtime settings for the local transcription engine.
type Config struct {
	// Model is the Whisper model to use (e.g., "large-v3-turbo").
	Model string
	// CUDAEnabled enables GPU acceleration.
	CUDAEnabled bool
	// Language is the expected session language as an ISO-639-1 code;
	// empty means auto-detect.
	Language string
	// CacheDir overrides where the engine caches downloaded models.
	CacheDir string
	// HFToken is the Hugging Face token required by the diarization model.
	HFToken string
}

// Engine configuration constants.
const (
	DefaultModel   = "large-v3-turbo"
	CUDAIndexURL   = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL   = "https://pypi.org/simple"
	BatchSize      = "4"
	OutputFormat   = "json"
	CPUDevice      = "cpu"
	CUDADevice     = "cuda"
	CPUComputeType = "float32"
)

// UVXCommand is the launcher for the bundled Python engine.
const UVXCommand = "uvx"
