// Command fairy-lamp drives a dimmable LED string from a single push button
// and mirrors its state to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sweeney/fairy-lamp/internal/animation"
	"github.com/sweeney/fairy-lamp/internal/click"
	"github.com/sweeney/fairy-lamp/internal/config"
	"github.com/sweeney/fairy-lamp/internal/debounce"
	"github.com/sweeney/fairy-lamp/internal/gpio"
	"github.com/sweeney/fairy-lamp/internal/lamp"
	"github.com/sweeney/fairy-lamp/internal/mqtt"
	"github.com/sweeney/fairy-lamp/internal/status"
	"github.com/sweeney/fairy-lamp/internal/store"
	"github.com/sweeney/fairy-lamp/internal/web"
)

func main() {
	def := config.Default()
	ms := func(v int64) time.Duration { return time.Duration(v) * time.Millisecond }

	configPath := flag.String("config", "", "TOML config file (explicit flags override it)")
	node := flag.String("node", def.Node, "Node name used in MQTT topics")
	broker := flag.String("broker", def.Broker, "MQTT broker address")
	topicPrefix := flag.String("topic-prefix", def.TopicPrefix, "MQTT topic prefix")
	httpAddr := flag.String("http", def.HTTPAddr, "HTTP status address (empty to disable)")
	stateFile := flag.String("state-file", def.StateFile, "File the lamp state is persisted to")
	poll := flag.Duration("poll", ms(def.PollMs), "Switch polling interval")
	debounceInterval := flag.Duration("debounce", ms(def.DebounceMs), "Debounce duration")
	heartbeat := flag.Duration("heartbeat", ms(def.HeartbeatMs), "Heartbeat interval (0 to disable)")
	chip := flag.String("chip", def.Chip, "GPIO chip for the switch")
	pinSwitch := flag.Int("pin-switch", def.PinSwitch, "BCM pin number for the push button")
	pwmBackend := flag.String("pwm", def.PWMBackend, `PWM backend ("periph", "rpio" or "none")`)
	pinPWM := flag.Int("pin-pwm", def.PinPWM, "BCM pin number for the LED PWM output")
	pwmFreq := flag.Int("pwm-freq", def.PWMFrequency, "PWM frequency in Hz")
	printState := flag.Bool("print-state", false, "Print the stored lamp state and exit")

	flag.Parse()

	cfg := def
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("fatal: %v", err)
		}
		cfg = loaded
	}

	// Flags given on the command line win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "node":
			cfg.Node = *node
		case "broker":
			cfg.Broker = *broker
		case "topic-prefix":
			cfg.TopicPrefix = *topicPrefix
		case "http":
			cfg.HTTPAddr = *httpAddr
		case "state-file":
			cfg.StateFile = *stateFile
		case "poll":
			cfg.PollMs = poll.Milliseconds()
		case "debounce":
			cfg.DebounceMs = debounceInterval.Milliseconds()
		case "heartbeat":
			cfg.HeartbeatMs = heartbeat.Milliseconds()
		case "chip":
			cfg.Chip = *chip
		case "pin-switch":
			cfg.PinSwitch = *pinSwitch
		case "pwm":
			cfg.PWMBackend = *pwmBackend
		case "pin-pwm":
			cfg.PinPWM = *pinPWM
		case "pwm-freq":
			cfg.PWMFrequency = *pwmFreq
		}
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("fatal: invalid config: %v", err)
	}

	if err := run(cfg, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config.Config, printState bool) error {
	st := store.NewFile(cfg.StateFile)
	initial, err := st.Load()
	if err != nil {
		log.Printf("store: %v; using defaults", err)
	}

	if printState {
		fmt.Printf("power: %s, level: %d, brightness: %d%%\n",
			powerString(initial.Power), initial.Level, lamp.ToGateway(initial.Level))
		return nil
	}

	sw, err := gpio.NewRealSwitch(cfg.Chip, cfg.PinSwitch)
	if err != nil {
		return fmt.Errorf("init switch: %w", err)
	}
	defer sw.Close()

	pwm, err := openPWM(cfg)
	if err != nil {
		return fmt.Errorf("init pwm: %w", err)
	}
	defer pwm.Close()

	arbiter := animation.NewArbiter(gpio.NewDutyWriter(pwm), cfg.AnimationTimings())
	classifier := click.New(debounce.New(sw, uint32(cfg.DebounceMs)))
	ctrl := lamp.NewController(arbiter, classifier, initial)

	if cfg.PollTooSlow() {
		log.Printf("warning: poll=%dms is too slow for reliable click timing", cfg.PollMs)
	}

	publisher := mqtt.NewRealPublisher(mqtt.Options{
		Broker:   cfg.Broker,
		ClientID: "fairy-lamp-" + cfg.Node,
		Topics:   mqtt.TopicsFor(cfg.TopicPrefix, cfg.Node),
	})
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		Node:        cfg.Node,
		PollMs:      cfg.PollMs,
		DebounceMs:  cfg.DebounceMs,
		HeartbeatMs: cfg.HeartbeatMs,
		Broker:      cfg.Broker,
		HTTPAddr:    cfg.HTTPAddr,
		PWMBackend:  cfg.PWMBackend,
	})
	tracker.Update(ctrl.State(), ctrl.Duty(), ctrl.AnimationIdle(), true, ctrl.Counts())

	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTPAddr)
	}

	log.Printf("started: node=%s poll=%dms debounce=%dms broker=%s heartbeat=%dms pwm=%s",
		cfg.Node, cfg.PollMs, cfg.DebounceMs, cfg.Broker, cfg.HeartbeatMs, cfg.PWMBackend)

	ticker := time.NewTicker(time.Duration(cfg.PollMs) * time.Millisecond)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	heartbeat := time.Duration(cfg.HeartbeatMs) * time.Millisecond
	return runLoop(ctrl, publisher, publisher, publisher.Commands(), st, tracker, heartbeat, time.Now, ticker.C, sigCh)
}

// openPWM returns the LED output for the configured backend.
func openPWM(cfg config.Config) (gpio.PWM, error) {
	switch cfg.PWMBackend {
	case config.BackendPeriph:
		return gpio.NewPeriphPWM(fmt.Sprintf("GPIO%d", cfg.PinPWM), cfg.PWMFrequency)
	case config.BackendRpio:
		return gpio.NewRpioPWM(cfg.PinPWM, cfg.PWMFrequency)
	case config.BackendNone:
		return logPWM{}, nil
	}
	return nil, fmt.Errorf("unknown pwm backend %q", cfg.PWMBackend)
}

// logPWM stands in for the LED when running without hardware.
type logPWM struct{}

func (logPWM) SetDuty(duty uint8) error {
	log.Printf("pwm: duty=%d", duty)
	return nil
}

func (logPWM) Close() error { return nil }

// stateSaver persists the lamp state.
type stateSaver interface {
	Save(lamp.State) error
}

func runLoop(ctrl *lamp.Controller, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, commands <-chan lamp.Command, saver stateSaver, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	// The control logic runs on a wrapping millisecond clock.
	millis := func(t time.Time) uint32 {
		return uint32(t.Sub(startTime).Milliseconds())
	}

	last := ctrl.State()
	ctrl.Restore(millis(startTime))
	restored := mqtt.LampEvent{Timestamp: startTime, Event: "RESTORED", State: last}
	if err := publisher.Publish(restored); err != nil {
		log.Printf("publish error: %v", err)
	}
	lastHeartbeat := startTime

	updateTracker := func(t time.Time) {
		if tracker == nil {
			return
		}
		ms := millis(t)
		tracker.Update(ctrl.State(), ctrl.Duty(), ctrl.AnimationIdle(), ctrl.ClickIdle(ms), ctrl.Counts())
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
			if bs, ok := mqttStatus.(mqtt.BufferStatus); ok {
				tracker.SetMQTTBuffer(bs.Buffered(), bs.Dropped())
			}
		}
	}

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}

			if err := saver.Save(ctrl.State()); err != nil {
				log.Printf("store: %v", err)
			}

			t := now()
			event := mqtt.SystemEvent{
				Timestamp: t,
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				updateTracker(t)
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case cmd := <-commands:
			log.Printf("command: %s", describeCommand(cmd))
			ctrl.Apply(cmd, millis(now()))

		case <-tick:
			t := now()
			ctrl.Poll(millis(t))

			if st, ok := ctrl.Changed(); ok {
				name := "LEVEL"
				if st.Power != last.Power {
					name = "POWER"
				}
				last = st
				log.Printf("event: %s (power=%s level=%d)", name, powerString(st.Power), st.Level)
				if err := publisher.Publish(mqtt.LampEvent{Timestamp: t, Event: name, State: st}); err != nil {
					// Don't crash on publish failure
					log.Printf("publish error: %v", err)
				}
				if err := saver.Save(st); err != nil {
					log.Printf("store: %v", err)
				}
			}

			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				counts := ctrl.Counts()
				log.Printf("heartbeat: uptime=%v toggles=%d up=%d down=%d boundary=%d gateway=%d",
					t.Sub(startTime).Truncate(time.Second), counts.Toggles, counts.StepsUp,
					counts.StepsDown, counts.BoundaryHits, counts.GatewayEvents)

				hbEvent := mqtt.SystemEvent{
					Timestamp: t,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					updateTracker(t)
					hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			updateTracker(t)
		}
	}
}

func describeCommand(cmd lamp.Command) string {
	var parts []string
	if cmd.Power != nil {
		parts = append(parts, "power="+powerString(*cmd.Power))
	}
	if cmd.Brightness != nil {
		parts = append(parts, fmt.Sprintf("brightness=%d", *cmd.Brightness))
	}
	return strings.Join(parts, " ")
}

func powerString(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
