package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/jason-client/internal/brain"
	"github.com/rcliao/jason-client/internal/locate"
	"github.com/rcliao/jason-client/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat [text]",
		Short: "Send a chat turn to jason-brain",
		Long: "Send a chat turn to jason-brain. Text can be a positional arg or piped via stdin.\n" +
			"Device location fills lat/lng only when the slots do not already carry them.",
		Run: runChat,
	}

	cmd.Flags().String("slots", "", "Request slots as a JSON object")
	cmd.Flags().String("lat", "", "Explicit latitude slot (skips device location with --lng)")
	cmd.Flags().String("lng", "", "Explicit longitude slot (skips device location with --lat)")
	cmd.Flags().StringP("transcript", "t", "", "JSON file with prior messages ([{role, content}])")
	cmd.Flags().StringP("role", "r", "user", "Role of the new message: user, assistant, system, tool")
	cmd.Flags().String("request-id", "", "Request id (default: a new ULID)")
	cmd.Flags().Bool("dry-run", false, "Ask the service not to take side effects")
	cmd.Flags().Bool("no-location", false, "Never acquire device location")

	RootCmd.AddCommand(cmd)
}

func runChat(cmd *cobra.Command, args []string) {
	rawSlots, _ := cmd.Flags().GetString("slots")
	lat, _ := cmd.Flags().GetString("lat")
	lng, _ := cmd.Flags().GetString("lng")
	transcriptPath, _ := cmd.Flags().GetString("transcript")
	role, _ := cmd.Flags().GetString("role")
	requestID, _ := cmd.Flags().GetString("request-id")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noLocation, _ := cmd.Flags().GetBool("no-location")

	var content string
	if len(args) > 0 {
		content = strings.Join(args, " ")
	} else if stat, err := os.Stdin.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			exitErr("read stdin", err)
		}
		content = string(b)
	}

	var transcript []model.ChatMessage
	if transcriptPath != "" {
		f, err := os.Open(transcriptPath)
		if err != nil {
			exitErr("open transcript", err)
		}
		transcript, err = readTranscript(f)
		f.Close()
		if err != nil {
			exitErr("read transcript", err)
		}
	}

	messages, err := buildMessages(transcript, model.Role(role), content)
	if err != nil {
		exitErr("chat", err)
	}
	slots, err := parseSlots(rawSlots, lat, lng)
	if err != nil {
		exitErr("parse slots", err)
	}
	if requestID == "" {
		requestID = ulid.Make().String()
	}

	cfg, logger := loadConfig()
	defer logger.Sync()

	opts := []brain.Option{brain.WithLogger(logger)}
	if !noLocation {
		opts = append(opts, brain.WithAcquirer(locate.FromConfig(cfg, logger)))
	}
	j, err := openJournal(cfg)
	if err != nil {
		exitErr("open journal", err)
	}
	if j != nil {
		opts = append(opts, brain.WithRecorder(j))
	}

	resp := brain.New(brain.ConfigFrom(cfg), opts...).Call(cmd.Context(), messages, slots, brain.CallOptions{
		RequestID: requestID,
		DryRun:    dryRun,
	})
	if j != nil {
		j.Close()
	}

	printResponse(cmd.OutOrStdout(), resp)
	exitOnFailure(resp, logger)
}

// osExit is replaced in tests.
var osExit = os.Exit

// exitOnFailure flushes the logger and exits 1 when the call failed;
// deferred calls do not run past os.Exit.
func exitOnFailure(resp model.BrainResponse, logger *zap.Logger) {
	if resp.OK {
		return
	}
	logger.Sync()
	osExit(1)
}

// readTranscript decodes a JSON array of prior messages.
func readTranscript(r io.Reader) ([]model.ChatMessage, error) {
	var msgs []model.ChatMessage
	if err := json.NewDecoder(r).Decode(&msgs); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	for i, m := range msgs {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
	}
	return msgs, nil
}

// buildMessages appends the new turn, if any, to the transcript.
func buildMessages(transcript []model.ChatMessage, role model.Role, content string) ([]model.ChatMessage, error) {
	msgs := append([]model.ChatMessage(nil), transcript...)
	if content = strings.TrimSpace(content); content != "" {
		m := model.ChatMessage{Role: role, Content: content}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("message text is required (positional arg, stdin or --transcript)")
	}
	return msgs, nil
}

// parseSlots decodes the --slots object and applies --lat/--lng on top.
func parseSlots(raw, lat, lng string) (model.SlotMap, error) {
	slots := model.SlotMap{}
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &slots); err != nil {
			return nil, fmt.Errorf("slots must be a JSON object: %w", err)
		}
		if slots == nil {
			slots = model.SlotMap{}
		}
	}
	if lat != "" {
		slots[model.SlotLat] = lat
	}
	if lng != "" {
		slots[model.SlotLng] = lng
	}
	return slots, nil
}

func printResponse(w io.Writer, resp model.BrainResponse) {
	if formatFlag != "text" {
		printJSON(w, resp)
		return
	}
	if !resp.OK {
		fmt.Fprintf(w, "error: %s\n", resp.Error)
		return
	}
	if resp.Message != nil {
		fmt.Fprintln(w, resp.Message.Text())
	}
	if resp.NextAction != nil {
		fmt.Fprintf(w, "next: %s\n", *resp.NextAction)
	}
}
