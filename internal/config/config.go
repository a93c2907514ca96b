package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"motion-recorder-go/internal/models"
)

type Config struct {
	// Application
	Version     string
	Environment string
	WorkerID    string
	Port        int
	LogLevel    string

	// Logdy (lightweight web log viewer)
	LogdyEnabled bool
	LogdyHost    string
	LogdyPort    int

	// NATS (engine event publishing)
	// Default: nats://localhost:4222, nats://nats:4222 inside Docker
	NatsEnabled        bool
	NatsURL            string
	NatsConnectTimeout time.Duration
	NatsReconnectWait  time.Duration
	NatsMaxReconnects  int
	NatsSubjectPrefix  string

	// Camera capture
	CameraBackDevice    string
	CameraFrontDevice   string
	CaptureWidth        int
	CaptureHeight       int
	CaptureFPS          int
	CaptureMaxErrors    int
	VideoCodec          string
	BindTimeout         time.Duration
	AutoStartMonitoring bool

	// Recording storage
	PrivateStorageDir string
	PublicStorageDir  string // Empty disables public_media mode
	AudioPermission   bool

	// Motion detection
	MotionRatioThreshold    float64
	PixelDiffThreshold      int
	ConsecutiveMotionFrames int
	AnalyzeEveryNthFrame    int
	DownsampleStride        int
	StopDelay               time.Duration
	Cooldown                time.Duration

	// Recording & camera behavior
	RecordAudio       bool
	UseBackCamera     bool
	AutoExposureLock  bool
	StorageMode       string
	StorageFolderName string

	// Status log ring
	StatusLogLines int

	// Swagger Configuration
	SwaggerHost string
	SwaggerPort int

	// Graceful Shutdown
	ShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found or error loading .env file, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	defaults := models.DefaultMotionSettings()

	return &Config{
		// Application
		Version:     getEnv("VERSION", "1.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),
		WorkerID:    getEnv("WORKER_ID", "recorder-1"),
		Port:        getEnvInt("PORT", 8000),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Logdy (lightweight web log viewer)
		LogdyEnabled: getEnvBool("LOGDY_ENABLED", false),
		LogdyHost:    getEnv("LOGDY_HOST", "localhost"),
		LogdyPort:    getEnvInt("LOGDY_PORT", 8080),

		// NATS
		NatsEnabled:        getEnvBool("NATS_ENABLED", true),
		NatsURL:            getNatsURL(),
		NatsConnectTimeout: getEnvDuration("NATS_CONNECT_TIMEOUT", 10*time.Second),
		NatsReconnectWait:  getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NatsMaxReconnects:  getEnvInt("NATS_MAX_RECONNECTS", -1), // -1 = unlimited
		NatsSubjectPrefix:  getEnv("NATS_SUBJECT_PREFIX", "motion.events"),

		// Camera capture
		CameraBackDevice:    getEnv("CAMERA_BACK_DEVICE", "0"),
		CameraFrontDevice:   getEnv("CAMERA_FRONT_DEVICE", "1"),
		CaptureWidth:        getEnvInt("CAPTURE_WIDTH", 640),
		CaptureHeight:       getEnvInt("CAPTURE_HEIGHT", 480),
		CaptureFPS:          getEnvInt("CAPTURE_FPS", 15),
		CaptureMaxErrors:    getEnvInt("CAPTURE_MAX_ERRORS", 10),
		VideoCodec:          getEnv("VIDEO_CODEC", "mp4v"),
		BindTimeout:         getEnvDuration("BIND_TIMEOUT", 15*time.Second),
		AutoStartMonitoring: getEnvBool("AUTO_START_MONITORING", false),

		// Recording storage
		PrivateStorageDir: getEnv("PRIVATE_STORAGE_DIR", "./recordings"),
		PublicStorageDir:  getEnv("PUBLIC_STORAGE_DIR", ""),
		AudioPermission:   getEnvBool("AUDIO_PERMISSION", false),

		// Motion detection
		MotionRatioThreshold:    getEnvFloat("MOTION_RATIO_THRESHOLD", defaults.MotionRatioThreshold),
		PixelDiffThreshold:      getEnvInt("PIXEL_DIFF_THRESHOLD", defaults.PixelDiffThreshold),
		ConsecutiveMotionFrames: getEnvInt("CONSECUTIVE_MOTION_FRAMES", defaults.ConsecutiveMotionFrames),
		AnalyzeEveryNthFrame:    getEnvInt("ANALYZE_EVERY_NTH_FRAME", defaults.AnalyzeEveryNthFrame),
		DownsampleStride:        getEnvInt("DOWNSAMPLE_STRIDE", defaults.DownsampleStride),
		StopDelay:               getEnvDuration("STOP_DELAY", defaults.StopDelay),
		Cooldown:                getEnvDuration("COOLDOWN", defaults.Cooldown),

		// Recording & camera behavior
		RecordAudio:       getEnvBool("RECORD_AUDIO", defaults.RecordAudio),
		UseBackCamera:     getEnvBool("USE_BACK_CAMERA", defaults.UseBackCamera),
		AutoExposureLock:  getEnvBool("AUTO_EXPOSURE_LOCK", defaults.AutoExposureLock),
		StorageMode:       getEnv("STORAGE_MODE", defaults.StorageMode.String()),
		StorageFolderName: getEnv("STORAGE_FOLDER_NAME", defaults.StorageFolderName),

		StatusLogLines: getEnvInt("STATUS_LOG_LINES", 100),

		// Swagger Configuration
		SwaggerHost: getEnv("SWAGGER_HOST", "localhost"),
		SwaggerPort: getEnvInt("SWAGGER_PORT", 8000),

		// Graceful Shutdown
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// MotionSettings builds the initial settings snapshot. Values are not clamped here.
func (c *Config) MotionSettings() models.MotionSettings {
	return models.MotionSettings{
		MotionRatioThreshold:    c.MotionRatioThreshold,
		PixelDiffThreshold:      c.PixelDiffThreshold,
		ConsecutiveMotionFrames: c.ConsecutiveMotionFrames,
		AnalyzeEveryNthFrame:    c.AnalyzeEveryNthFrame,
		DownsampleStride:        c.DownsampleStride,
		StopDelay:               c.StopDelay,
		Cooldown:                c.Cooldown,
		RecordAudio:             c.RecordAudio,
		UseBackCamera:           c.UseBackCamera,
		AutoExposureLock:        c.AutoExposureLock,
		StorageMode:             models.StorageMode(c.StorageMode),
		StorageFolderName:       c.StorageFolderName,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Helper functions for Docker environment detection
func isRunningInDocker() bool {
	if os.Getenv("DOCKER_CONTAINER") == "true" {
		return true
	}

	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}

	return false
}

// getNatsURL returns the appropriate NATS URL based on environment
func getNatsURL() string {
	if envURL := os.Getenv("NATS_URL"); envURL != "" {
		return envURL
	}

	if isRunningInDocker() {
		return "nats://nats:4222"
	}

	return "nats://localhost:4222"
}
