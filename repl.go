package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/peterh/liner"
	"github.com/xyproto/env/v2"
)

// Interactive loop. Each submitted line is appended to the session's program
// text and the whole unit is recompiled, so later definitions can use earlier
// ones and a compile error never poisons the session: the offending line is
// simply dropped again.
//
//	:ir      print the IR for the current session
//	:reset   discard the session
//	:quit    leave

func cmdRepl(ctx *CommandContext) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyFile := env.ExpandUser("~/.franzc_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Printf("%s (:quit to leave, :ir to inspect)\n", versionString)

	var session []string
	for {
		input, err := line.Prompt("franz> ")
		if err != nil {
			// Ctrl-C or Ctrl-D
			fmt.Println()
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		switch input {
		case ":quit", ":q":
			return nil
		case ":reset":
			session = nil
			fmt.Println("session cleared")
			continue
		case ":ir":
			irText, err := CompileFranzSource(strings.Join(session, "\n"), "repl", ctx)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			fmt.Print(irText)
			continue
		}

		candidate := append(append([]string{}, session...), input)
		if _, err := CompileFranzSource(strings.Join(candidate, "\n"), "repl", ctx); err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		session = candidate
		if !ctx.Quiet {
			fmt.Println("ok")
		}
	}
}
