package controller

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/downfa11-org/logshm/pkg/logring"
	"github.com/downfa11-org/logshm/pkg/shm"
	"github.com/downfa11-org/logshm/pkg/types"
	"github.com/downfa11-org/logshm/util"
)

const DefaultReadMax = 1

// Ring is the subset of *logring.Buffer the command handler drives.
type Ring interface {
	Post(timestamp int64, level types.Level, text string) error
	PostWithCurrentTime(level types.Level, text string) error
	Drain(max int, fn func(types.Record) error) (int, error)
	Count() int32
	Clear() error
	Stats() (logring.Stats, error)
}

// CommandHandler executes line-oriented text commands against the ring and
// renders the result as text.
type CommandHandler struct {
	Ring        Ring
	SegmentPath string
}

func NewCommandHandler(ring Ring, segmentPath string) *CommandHandler {
	return &CommandHandler{Ring: ring, SegmentPath: segmentPath}
}

func (ch *CommandHandler) logCommandResult(cmd, response string) {
	status := "SUCCESS"
	if strings.HasPrefix(response, "ERROR:") {
		status = "FAILURE"
	}
	cleanResponse := strings.ReplaceAll(response, "\n", " ")
	util.Debug("status: '%s', command: '%s' to Response '%s'", status, cmd, cleanResponse)
}

// HandleCommand executes one command line and returns its response. Failures
// are reported as responses prefixed with "ERROR:".
func (ch *CommandHandler) HandleCommand(rawCmd string) string {
	cmd := strings.TrimSpace(rawCmd)
	if cmd == "" {
		resp := "ERROR: empty command"
		ch.logCommandResult(rawCmd, resp)
		return resp
	}

	keyword, rest, _ := strings.Cut(cmd, " ")
	var resp string

	switch strings.ToUpper(keyword) {
	case "HELP":
		resp = ch.handleHelp()
	case "POST":
		resp = ch.handlePost(rest)
	case "READ":
		resp = ch.handleRead(rest)
	case "COUNT":
		resp = strconv.Itoa(int(ch.Ring.Count()))
	case "STATS":
		resp = ch.handleStats()
	case "CLEAR":
		if err := ch.Ring.Clear(); err != nil {
			resp = fmt.Sprintf("ERROR: %v", err)
		} else {
			resp = "OK"
		}
	case "INSPECT":
		resp = ch.handleInspect()
	default:
		resp = fmt.Sprintf("ERROR: unknown command '%s'. Type HELP for commands.", keyword)
	}

	ch.logCommandResult(cmd, resp)
	return resp
}

func (ch *CommandHandler) handleHelp() string {
	return `Available commands:
POST [level=<debug|info|warn|error>] [ts=<unix millis>] message=<text> - post a record (default level=info, ts=now)
READ [max=<N>] - read up to N records (default 1, 0 = until empty)
COUNT - number of records currently in the buffer
STATS - write index, read index and entry count
CLEAR - discard every record
INSPECT - show retained records without consuming them
HELP - show this help
EXIT - exit`
}

// handlePost processes POST [level=<L>] [ts=<N>] message=<text>
func (ch *CommandHandler) handlePost(argStr string) string {
	args := parseKeyValueArgs(argStr)
	message, ok := args["message"]
	if !ok {
		return "ERROR: missing message parameter. Expected: POST [level=<L>] [ts=<N>] message=<text>"
	}

	level := types.LevelInfo
	if lv, ok := args["level"]; ok {
		parsed, valid := types.ParseLevel(lv)
		if !valid {
			if n, err := strconv.Atoi(lv); err == nil && types.Level(n).Valid() {
				parsed, valid = types.Level(n), true
			}
		}
		if !valid {
			return fmt.Sprintf("ERROR: invalid level '%s'", lv)
		}
		level = parsed
	}

	var err error
	if tsStr, ok := args["ts"]; ok {
		ts, perr := strconv.ParseInt(tsStr, 10, 64)
		if perr != nil {
			return fmt.Sprintf("ERROR: invalid ts '%s'", tsStr)
		}
		err = ch.Ring.Post(ts, level, message)
	} else {
		err = ch.Ring.PostWithCurrentTime(level, message)
	}
	if err != nil {
		return fmt.Sprintf("ERROR: %v", err)
	}
	return "OK"
}

// handleRead processes READ [max=<N>]
func (ch *CommandHandler) handleRead(argStr string) string {
	args := parseKeyValueArgs(argStr)
	max := DefaultReadMax
	if maxStr, ok := args["max"]; ok {
		n, err := strconv.Atoi(maxStr)
		if err != nil || n < 0 {
			return "ERROR: max must be a non-negative integer"
		}
		max = n
	}

	var lines []string
	_, err := ch.Ring.Drain(max, func(rec types.Record) error {
		lines = append(lines, rec.String())
		return nil
	})
	if err != nil {
		return fmt.Sprintf("ERROR: %v", err)
	}
	if len(lines) == 0 {
		return "(empty)"
	}
	return strings.Join(lines, "\n")
}

func (ch *CommandHandler) handleStats() string {
	st, err := ch.Ring.Stats()
	if err != nil {
		return fmt.Sprintf("ERROR: %v", err)
	}
	return fmt.Sprintf("writeIndex=%d readIndex=%d entryCount=%d", st.WriteIndex, st.ReadIndex, st.EntryCount)
}

func (ch *CommandHandler) handleInspect() string {
	if ch.SegmentPath == "" {
		return "ERROR: no segment path configured"
	}
	snap, err := shm.ReadSnapshot(ch.SegmentPath)
	if err != nil {
		return fmt.Sprintf("ERROR: %v", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "writeIndex=%d readIndex=%d entryCount=%d retained=%d",
		snap.WriteIndex, snap.ReadIndex, snap.EntryCount, len(snap.Records))
	for _, rec := range snap.Records {
		sb.WriteString("\n")
		sb.WriteString(rec.String())
	}
	return sb.String()
}

// parseKeyValueArgs splits "k=v k=v message=free text" into a map. Everything
// after message= is taken verbatim, so message must come last.
func parseKeyValueArgs(argsStr string) map[string]string {
	result := make(map[string]string)

	before := argsStr
	if idx := strings.Index(argsStr, "message="); idx != -1 {
		before = argsStr[:idx]
		result["message"] = strings.TrimSpace(argsStr[idx+len("message="):])
	}

	for _, part := range strings.Fields(before) {
		if k, v, ok := strings.Cut(part, "="); ok {
			result[k] = v
		}
	}
	return result
}
