package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/vtuner/extension/internal/attr"
	"github.com/vtuner/extension/internal/dispatcher"
	"github.com/vtuner/extension/internal/geo"
	"github.com/vtuner/extension/internal/handlers"
	"github.com/vtuner/extension/internal/history"
	"github.com/vtuner/extension/internal/locator"
	"github.com/vtuner/extension/internal/manager"
	"github.com/vtuner/extension/internal/monitor"
	"github.com/vtuner/extension/internal/session"
	"github.com/vtuner/extension/internal/settings"
	"github.com/vtuner/extension/internal/worker"
	"github.com/vtuner/extension/pkg/hostapi/simhost"
)

const tickRate = 1.0 / 60.0

// runDemo drives the full stack against the built-in fake host: a car spawns
// a moment into the run, gets tuned over the bridge commands, and the journal
// plus telemetry land in their backends.
func runDemo(ticks int) {
	registry := simhost.NewRegistry()

	resolver := attr.NewResolver(Logger)
	loc := locator.New(registry, resolver, locator.Config{
		TargetName:    viper.GetString("discovery.targetName"),
		NameHint:      viper.GetString("discovery.nameHint"),
		MassThreshold: viper.GetFloat64("discovery.massThreshold"),
		ScanCooldown:  viper.GetFloat64("discovery.scanCooldown"),
	}, Logger)

	sessionCtx := session.NewContext()
	sessionCtx.SetSession(&session.Info{
		SessionName: viper.GetString("session.name"),
		WorldName:   viper.GetString("world.name"),
		StartedAt:   SessionStartTime,
	})

	queues := worker.NewQueues()
	hist := history.New(Logger)

	mgr := manager.New(manager.Dependencies{
		Registry: registry,
		Resolver: resolver,
		Locator:  loc,
		Settings: settings.NewStore(viper.GetString("settings.file"), Logger),
		Presets:  settings.NewPresetStore(viper.GetString("settings.presetsDir"), Logger),
		History:  hist,
		Session:  sessionCtx,
		Queues:   queues,
		Logger:   Logger,
	})

	if dbManager.IsValid {
		err := journalService.StartSession(
			viper.GetString("session.name"),
			viper.GetString("world.name"),
			viper.GetString("discovery.targetName"),
		)
		if err != nil {
			Logger.Error("journal session failed", "error", err)
			dbManager.IsValid = false
		}
	}

	track := geo.NewTrack()
	workerManager := worker.NewManager(worker.Dependencies{
		Journal:   journalService,
		Telemetry: telemetryManager,
		Projector: geo.NewProjector(
			viper.GetFloat64("world.anchorLongitude"),
			viper.GetFloat64("world.anchorLatitude"),
		),
		Track:           track,
		Logger:          Logger,
		IsDatabaseValid: func() bool { return dbManager.IsValid },
		VehicleName:     func() string { return sessionCtx.GetVehicle().Name },
	}, queues)

	monitorService := monitor.NewService(monitor.Dependencies{
		SessionContext:  sessionCtx,
		Queues:          queues,
		WorkerManager:   workerManager,
		History:         hist,
		IsBound:         mgr.IsBound,
		IsDatabaseValid: func() bool { return dbManager.IsValid },
	})

	eventDispatcher, err := dispatcher.New(Logger)
	if err != nil {
		Logger.Error("dispatcher init failed", "error", err)
		return
	}
	handlers.NewService(handlers.Dependencies{
		Manager: mgr,
		Monitor: monitorService,
		Logger:  Logger,
	}).RegisterHandlers(eventDispatcher)

	dispatch := func(command string, args ...string) {
		_, err := eventDispatcher.Dispatch(dispatcher.Event{
			Command:   command,
			Args:      args,
			Timestamp: time.Now(),
		})
		if err != nil {
			Logger.Warn("command failed", "command", command, "error", err)
		}
	}

	// Scripted drive. The car appears two seconds in, gets a street tune,
	// and burns one nitrous charge on the straight.
	for i := 0; i < ticks; i++ {
		switch i {
		case 120:
			registry.Add(simhost.NewStockCar(viper.GetString("discovery.targetName")))
		case 300:
			dispatch(":APPLY:", "powerMultiplier=1.4", "boostPressure=8", "brakeBias=0.6")
		case 600:
			dispatch(":NITRO:")
		case 900:
			dispatch(":APPLY:", "gripMultiplier=1.5", "weightReduction=10")
		case 1200:
			dispatch(":UNDO:")
		}

		dispatch(":TICK:")
		registry.Advance(tickRate)

		if i%300 == 299 {
			workerManager.Flush()
		}
	}
	workerManager.Flush()

	for _, line := range firstStatus(monitorService) {
		Logger.Info(line)
	}

	closeSession(track)
}

func firstStatus(m *monitor.Service) []string {
	output, _ := m.GetProgramStatus(false)
	return output
}

// closeSession stamps the journal row with duration and the driven track.
func closeSession(track *geo.Track) {
	if !dbManager.IsValid || journalService.SessionID() == 0 {
		return
	}
	wkb, err := track.WKB()
	if err != nil {
		Logger.Debug("no track recorded", "reason", err)
		wkb = nil
	}
	duration := time.Since(SessionStartTime).Seconds()
	if err := journalService.CloseSession(duration, wkb); err != nil {
		Logger.Error("closing journal session failed", "error", err)
		return
	}
	Logger.Info("journal session closed",
		"session", journalService.SessionID(),
		"duration", duration,
		"trackPoints", track.Len())

	if dbManager.ShouldSaveLocal {
		if err := dbManager.DumpMemoryToDisk(); err != nil {
			Logger.Error("journal disk dump failed", "error", err)
		}
	}
}
