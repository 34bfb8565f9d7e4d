// Command chatglyph downloads Twitch emotes and badges and composes chat
// lines that reference them as glyphs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/gogpu/chatglyph/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
