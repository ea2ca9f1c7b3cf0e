// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"time"

	"github.com/jessevdk/go-flags"
)

type options struct {
	Config   string        `short:"c" long:"config" description:"path to the checks YAML file" required:"true"`
	Interval time.Duration `short:"i" long:"interval" description:"collection interval" default:"15s"`
	Once     bool          `long:"once" description:"run one collection cycle and exit"`
	Format   string        `short:"f" long:"format" description:"output format" choice:"text" choice:"json" default:"text"`
	LogLevel string        `short:"l" long:"log-level" description:"log level (error, warning, info, debug)" default:"info"`
	Debug    bool          `short:"d" long:"debug" description:"debug mode"`
	Version  bool          `short:"v" long:"version" description:"display the version and exit"`
}

func parseCLI(args []string) (*options, error) {
	opts := &options{}
	parser := flags.NewParser(opts, flags.Default)
	parser.Name = "snmppoll"
	parser.Usage = "[OPTIONS]"

	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	return opts, nil
}

func isHelp(err error) bool {
	return flags.WroteHelp(err)
}
