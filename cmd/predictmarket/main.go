// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/jessevdk/go-flags"
)

var (
	// CLIVersionHash specifies the git commit used to build the application.
	CLIVersionHash = ""

	// CLIVersion specifies the version used to build the application.
	CLIVersion = "v0.1.0+dev"
)

// Empty is the root of the parser, every option lives on a sub command.
type Empty struct{}

// Subcommand is the signature of a sub command that can be registered.
type Subcommand func(context.Context, *flags.Parser) error

// Register registers one or more subcommands.
func Register(ctx context.Context, parser *flags.Parser, cmds ...Subcommand) error {
	for _, fn := range cmds {
		if err := fn(ctx, parser); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	setCommitHash()
	ctx := context.Background()
	if err := Main(ctx); err != nil {
		os.Exit(-1)
	}
}

func Main(ctx context.Context) error {
	parser := flags.NewParser(&Empty{}, flags.Default)

	if err := Register(ctx, parser,
		Init,
		Node,
		Version,
	); err != nil {
		fmt.Printf("%+v\n", err)
		return err
	}

	if _, err := parser.Parse(); err != nil {
		switch t := err.(type) {
		case *flags.Error:
			if t.Type != flags.ErrHelp {
				parser.WriteHelp(os.Stdout)
			}
		}
		return err
	}
	return nil
}

func setCommitHash() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	modified := false

	for _, v := range info.Settings {
		if v.Key == "vcs.revision" {
			CLIVersionHash = v.Value
		}
		if v.Key == "vcs.modified" {
			modified = v.Value == "true"
		}
	}
	if modified {
		CLIVersionHash += "-modified"
	}
}
