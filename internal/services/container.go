package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"motion-recorder-go/internal/config"
	"motion-recorder-go/internal/logging"
	"motion-recorder-go/internal/metrics"
	"motion-recorder-go/internal/models"
	"motion-recorder-go/internal/services/camera"
	"motion-recorder-go/internal/services/engine"
	"motion-recorder-go/internal/services/messaging"
	"motion-recorder-go/internal/services/recorder"
	"motion-recorder-go/internal/services/status"
)

// ServiceContainer holds all services
type ServiceContainer struct {
	Config    *config.Config
	Recorder  *recorder.Service
	Engine    *engine.Engine
	Status    *status.Repository
	Metrics   *metrics.Metrics
	Messaging *messaging.Service
}

// NewServiceContainer creates a new service container
func NewServiceContainer(cfg *config.Config) (*ServiceContainer, error) {
	sc := &ServiceContainer{
		Config:  cfg,
		Status:  status.NewRepository(cfg.StatusLogLines, logging.NewServiceLogger(cfg, "status")),
		Metrics: metrics.New(),
	}

	sinks := models.EventSinks{sc.Status, sc.Metrics}

	// NATS is optional; the recorder keeps running without an event bus
	if cfg.NatsEnabled {
		natsSvc, err := messaging.NewService(cfg)
		if err != nil {
			log.Warn().Err(err).Str("url", cfg.NatsURL).Msg("NATS unavailable, engine events will not be published")
		} else {
			sc.Messaging = natsSvc
			sinks = append(sinks, messaging.NewEventPublisher(natsSvc, cfg.NatsSubjectPrefix, cfg.WorkerID, logging.NewServiceLogger(cfg, "events")))
		}
	}

	sc.Recorder = recorder.NewService(
		recorder.WithAudioPermission(recorder.AudioPermissionFunc(func() bool { return cfg.AudioPermission })),
		recorder.WithLogger(logging.NewServiceLogger(cfg, "recorder")),
	)

	source := camera.NewSource(camera.Config{
		BackDevice:           cfg.CameraBackDevice,
		FrontDevice:          cfg.CameraFrontDevice,
		Width:                cfg.CaptureWidth,
		Height:               cfg.CaptureHeight,
		FPS:                  cfg.CaptureFPS,
		Codec:                cfg.VideoCodec,
		MaxConsecutiveErrors: cfg.CaptureMaxErrors,
	}, logging.NewServiceLogger(cfg, "camera"))

	sc.Engine = engine.New(source, sc.Recorder, cfg.MotionSettings(),
		engine.WithLogger(logging.NewServiceLogger(cfg, "engine")),
		engine.WithEventSink(sinks),
		engine.WithStorageRoots(engine.StorageRoots{
			Private: cfg.PrivateStorageDir,
			Public:  cfg.PublicStorageDir,
		}),
	)
	sc.Metrics.SetSnapshotSource(sc.Engine.Snapshot)

	return sc, nil
}

// StartMonitoring binds the requested camera and enables motion analysis
func (sc *ServiceContainer) StartMonitoring(ctx context.Context, req models.StartRequest) error {
	settings := sc.Engine.Settings()
	settings.UseBackCamera = req.UseBackCamera
	settings.RecordAudio = req.RecordAudio
	sc.Engine.UpdateSettings(settings)

	bindCtx, cancel := context.WithTimeout(ctx, sc.Config.BindTimeout)
	defer cancel()

	if err := sc.Engine.Start(bindCtx, engine.BindRequest{
		Facing: models.FacingFor(req.UseBackCamera),
		Target: strings.TrimSpace(req.Target),
	}); err != nil {
		sc.Status.SetStatus(models.StateIdle)
		return err
	}

	sc.Engine.SetMonitoringEnabled(true)
	sc.Status.SetStatus(models.StateMonitoring)
	sc.Status.AddLog("Monitoring started")
	return nil
}

// StopMonitoring unbinds the camera and returns the engine to idle
func (sc *ServiceContainer) StopMonitoring() {
	sc.Engine.Stop()
	sc.Status.SetStatus(models.StateIdle)
	sc.Status.AddLog("Monitoring stopped")
}

// SetMonitoringEnabled pauses or resumes analysis on the current binding
func (sc *ServiceContainer) SetMonitoringEnabled(enabled bool) {
	sc.Engine.SetMonitoringEnabled(enabled)
	sc.Status.SetStatus(sc.Engine.State())
}

func (sc *ServiceContainer) Snapshot() models.EngineSnapshot { return sc.Engine.Snapshot() }

func (sc *ServiceContainer) RecordingStatus() models.RecordingStatus { return sc.Recorder.Status() }

func (sc *ServiceContainer) ServiceState() status.ServiceState { return sc.Status.State() }

func (sc *ServiceContainer) Logs() []status.LogEntry { return sc.Status.Logs() }

func (sc *ServiceContainer) Settings() models.MotionSettings { return sc.Engine.Settings() }

func (sc *ServiceContainer) UpdateSettings(s models.MotionSettings) (models.MotionSettings, []models.SettingAdjustment) {
	return sc.Engine.UpdateSettings(s)
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	if sc.Engine != nil {
		sc.Engine.Stop()
	}

	var err error
	if sc.Messaging != nil {
		err = sc.Messaging.Shutdown(ctx)
	}

	if sc.Status != nil {
		sc.Status.SetStatus(models.StateIdle)
		sc.Status.AddLog("Services stopped")
	}
	return err
}
