package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dfalkner/meetcoach/internal/config"
	"github.com/dfalkner/meetcoach/internal/engine"
	"github.com/dfalkner/meetcoach/internal/events"
	"github.com/dfalkner/meetcoach/internal/server"
)

// replayCmd feeds a recorded JSONL session through the engine and prints
// every alert it would have emitted. The file format is the gateway's
// envelope, one per line.
var replayCmd = &cobra.Command{
	Use:   "replay <session.jsonl>",
	Short: "Replay a recorded session through the detection engine",
	Long: `Replay reads a JSONL file of gateway envelopes ({"type":"sample",...},
{"type":"text",...}) and runs them through the detection engine offline,
printing fired alerts as JSON lines. Use it to tune thresholds against
recorded meetings.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		out := json.NewEncoder(os.Stdout)
		fired := 0
		eng := engine.New(&cfg.Detection, engine.DeliveryFunc(func(fb events.FeedbackEvent) {
			fired++
			out.Encode(fb) //nolint:errcheck // stdout
		}), engine.Options{Logger: logger})

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open session: %w", err)
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
		line := 0
		for scanner.Scan() {
			line++
			if len(scanner.Bytes()) == 0 {
				continue
			}
			var env server.Envelope
			if err := json.Unmarshal(scanner.Bytes(), &env); err != nil {
				logger.Warn("skipping malformed line", "line", line, "error", err)
				continue
			}
			dispatchReplay(eng, env, logger)
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read session: %w", err)
		}

		fmt.Fprintf(os.Stderr, "replayed %d events, %d alerts fired\n", line, fired)
		return nil
	},
}

func dispatchReplay(eng *engine.Engine, env server.Envelope, logger *slog.Logger) {
	switch env.Type {
	case "sample":
		var ev events.IngestionEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			logger.Warn("malformed sample payload", "error", err)
			return
		}
		eng.HandleSample(ev)
	case "text":
		var ev events.TextEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			logger.Warn("malformed text payload", "error", err)
			return
		}
		eng.HandleText(ev)
	case "meeting_ended":
		eng.EndMeeting(env.MeetingID)
	default:
		logger.Warn("unknown envelope type", "type", env.Type)
	}
}
