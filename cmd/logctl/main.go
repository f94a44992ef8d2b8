package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/downfa11-org/logshm/pkg/config"
	"github.com/downfa11-org/logshm/pkg/controller"
	"github.com/downfa11-org/logshm/pkg/logring"
	"github.com/downfa11-org/logshm/util"
)

func main() {
	fs := flag.NewFlagSet("logctl", flag.ExitOnError)
	cfg, err := config.Load(fs, os.Args[1:])
	if err != nil {
		fmt.Println("Failed to load config:", err)
		os.Exit(1)
	}
	defer util.Sync()

	ring := logring.New(cfg.RingOptions())
	if err := ring.Initialize(); err != nil {
		fmt.Println("Failed to attach to shared log buffer:", err)
		os.Exit(1)
	}
	defer ring.Teardown()

	ch := controller.NewCommandHandler(ring, ring.Options().SegmentPath())

	// Arguments after the flags run as a single command.
	if fs.NArg() > 0 {
		resp := ch.HandleCommand(strings.Join(fs.Args(), " "))
		fmt.Println(resp)
		if strings.HasPrefix(resp, "ERROR:") {
			ring.Teardown()
			os.Exit(1)
		}
		return
	}

	fmt.Printf("Attached to %s. Type HELP for commands.\n\n", ring.Options().SegmentPath())
	repl(os.Stdin, os.Stdout, ch)
}

func repl(in io.Reader, out io.Writer, ch *controller.CommandHandler) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.EqualFold(strings.TrimSpace(line), "EXIT") {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		fmt.Fprintln(out, ch.HandleCommand(line))
	}
}
