package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gogpu/chatglyph"
	"github.com/gogpu/chatglyph/chat"
	"github.com/gogpu/chatglyph/compose"
	"github.com/gogpu/chatglyph/glyph"
)

// ComposeOptions holds flags for the compose command.
type ComposeOptions struct {
	User      string
	Color     string
	Badges    []string
	Emotes    []string
	Action    bool
	Timestamp string
	Fetch     bool
	PNG       string
}

// RunView is one run in command output.
type RunView struct {
	Kind      string `json:"kind"`
	Text      string `json:"text,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Name      string `json:"name,omitempty"`
	Codepoint string `json:"codepoint,omitempty"`
	Color     string `json:"color,omitempty"`
}

func (v RunView) String() string {
	var s string
	if v.Kind == compose.RunLiteral.String() {
		s = fmt.Sprintf("%-7s %q", v.Kind, v.Text)
	} else {
		s = fmt.Sprintf("%-7s %s %s %s", v.Kind, v.Namespace, v.Name, v.Codepoint)
	}
	if v.Color != "" {
		s += " " + v.Color
	}
	return s
}

// CacheView summarises the glyph bitmap cache after a PNG preview.
type CacheView struct {
	Bitmaps int     `json:"bitmaps"`
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// ComposeReport is the output of the compose command.
type ComposeReport struct {
	Preview     string     `json:"preview"`
	Text        string     `json:"text,omitempty"`
	Echo        string     `json:"echo,omitempty"`
	Runs        []RunView  `json:"runs,omitempty"`
	BitmapCache *CacheView `json:"bitmap_cache,omitempty"`
}

func (r ComposeReport) String() string {
	if r.Echo != "" {
		return r.Echo
	}
	lines := make([]string, 0, len(r.Runs)+1)
	lines = append(lines, r.Preview)
	for _, run := range r.Runs {
		lines = append(lines, "  "+run.String())
	}
	if c := r.BitmapCache; c != nil {
		lines = append(lines, fmt.Sprintf("bitmap cache: %d bitmaps, %d hits, %d misses (%.0f%%)",
			c.Bitmaps, c.Hits, c.Misses, 100*c.HitRate))
	}
	return strings.Join(lines, "\n")
}

// NewComposeCommand creates the compose command.
func NewComposeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ComposeOptions{}

	cmd := &cobra.Command{
		Use:   "compose <message>",
		Short: "Compose a chat line and print its runs",
		Long: `Compose one chat line the way a host chat would receive it and print
the resulting runs.

Emotes are placed with --emote name:start-end, where start and end are
inclusive codepoint offsets into the message. Without --fetch the named
emotes and badges are registered without images; with --fetch the
configured manifests are downloaded first and only names they contain
resolve.`,
		Example: `  chatglyph compose --user bob --color '#ff0000' --badge moderator/1 \
    --emote Kappa:3-7 'hi Kappa'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompose(cmd, rootOpts, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.User, "user", "u", "", "sender display name")
	cmd.Flags().StringVar(&opts.Color, "color", "", "username colour (#RRGGBB)")
	cmd.Flags().StringSliceVarP(&opts.Badges, "badge", "b", nil, "badge set/version, in display order")
	cmd.Flags().StringArrayVarP(&opts.Emotes, "emote", "e", nil, "emote placement name:start-end")
	cmd.Flags().BoolVar(&opts.Action, "action", false, "render as a /me action")
	cmd.Flags().StringVar(&opts.Timestamp, "timestamp", "", "literal timestamp (default: now, per chat.date_format)")
	cmd.Flags().BoolVar(&opts.Fetch, "fetch", false, "download the configured manifests first")
	cmd.Flags().StringVar(&opts.PNG, "png", "", "write a PNG preview to this file")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runCompose(cmd *cobra.Command, rootOpts *RootOptions, opts *ComposeOptions, message string) error {
	out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

	cfg, err := LoadConfig(rootOpts.ConfigPath)
	if err != nil {
		return out.Fail(ErrCodeConfig, err)
	}
	line, err := opts.line(message)
	if err != nil {
		return out.Fail(ErrCodeCompose, err)
	}

	cat := chatglyph.New(cfg.Options()...)
	if opts.Fetch {
		if _, err := fetchAll(cmd, cat, cfg); err != nil {
			return out.Fail(ErrCodeFetch, err)
		}
	} else {
		registerOffline(cat.Registry(), line)
	}

	sink := &sink{}
	d := cat.Dispatcher(cfg.Chat, chat.WithChatSurface(sink), chat.WithLocalEcho(sink))
	d.Dispatch(line)

	report := ComposeReport{Echo: sink.echo}
	if sink.text != nil {
		report.Preview = preview(sink.text, out.Format == "text" && isTerminal(cmd.OutOrStdout()))
		report.Text = sink.text.String()
		report.Runs = runViews(sink.text)

		if opts.PNG != "" {
			if err := writePNG(opts.PNG, sink.text, cat.Face()); err != nil {
				return out.Fail(ErrCodeRender, err)
			}
			st := cat.Face().CacheStats()
			report.BitmapCache = &CacheView{Bitmaps: st.Len, Hits: st.Hits, Misses: st.Misses, HitRate: st.HitRate()}
		}
	}
	return out.Success(report)
}

func (o *ComposeOptions) line(message string) (compose.Line, error) {
	col, err := ParseColor(o.Color)
	if err != nil {
		return compose.Line{}, err
	}
	placements := make([]compose.Placement, 0, len(o.Emotes))
	for _, e := range o.Emotes {
		p, err := ParsePlacement(e)
		if err != nil {
			return compose.Line{}, err
		}
		placements = append(placements, p)
	}
	return compose.Line{
		Timestamp:     o.Timestamp,
		Username:      o.User,
		UsernameColor: col,
		Badges:        o.Badges,
		Body:          message,
		Placements:    placements,
		Action:        o.Action,
	}, nil
}

// ParsePlacement parses "name:start-end".
func ParsePlacement(s string) (compose.Placement, error) {
	i := strings.LastIndexByte(s, ':')
	if i <= 0 {
		return compose.Placement{}, fmt.Errorf("invalid emote %q: want name:start-end", s)
	}
	from, to, ok := strings.Cut(s[i+1:], "-")
	if !ok {
		return compose.Placement{}, fmt.Errorf("invalid emote %q: want name:start-end", s)
	}
	start, err := strconv.Atoi(from)
	if err != nil {
		return compose.Placement{}, fmt.Errorf("invalid emote %q: %w", s, err)
	}
	end, err := strconv.Atoi(to)
	if err != nil {
		return compose.Placement{}, fmt.Errorf("invalid emote %q: %w", s, err)
	}
	return compose.Placement{Emote: s[:i], Start: start, End: end}, nil
}

// registerOffline binds every badge, then every emote, the line names.
func registerOffline(reg *glyph.Registry, line compose.Line) {
	for _, b := range line.Badges {
		reg.Register(glyph.NamespaceBadge, b)
	}
	for _, p := range line.Placements {
		reg.Register(glyph.NamespaceEmote, p.Emote)
	}
}

// sink captures dispatcher output.
type sink struct {
	text compose.Text
	echo string
}

func (s *sink) AddLine(t compose.Text) { s.text = t }

func (s *sink) Echo(text string) error {
	s.echo = text
	return nil
}

// preview writes glyph runs as [name], optionally with ANSI colours.
func preview(t compose.Text, colorize bool) string {
	var sb strings.Builder
	for _, r := range t {
		s := r.Text
		if r.Kind == compose.RunGlyph {
			s = "[" + r.Name + "]"
		}
		if colorize {
			s = ansi(s, r.Color)
		}
		sb.WriteString(s)
	}
	return sb.String()
}

func runViews(t compose.Text) []RunView {
	views := make([]RunView, 0, len(t))
	for _, r := range t {
		v := RunView{Kind: r.Kind.String(), Color: hexColor(r.Color)}
		if r.Kind == compose.RunLiteral {
			v.Text = r.Text
		} else {
			v.Namespace = r.Namespace.String()
			v.Name = r.Name
			v.Codepoint = "unresolved"
			if r.Resolved() {
				v.Codepoint = fmt.Sprintf("U+%04X", r.Codepoint)
			}
		}
		views = append(views, v)
	}
	return views
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
