package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"podcaster/internal/api"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

var statusKinds = map[statusKind]struct {
	label  string
	colors text.Colors
}{
	statusInfo:  {"INFO", text.Colors{text.FgBlue}},
	statusOK:    {"OK", text.Colors{text.FgGreen}},
	statusWarn:  {"WARN", text.Colors{text.FgYellow}},
	statusError: {"ERROR", text.Colors{text.FgRed}},
}

const statusLabelWidth = 12

// statusPrinter writes the sectioned `podcaster status` report.
type statusPrinter struct {
	out      io.Writer
	colorize bool
}

func newStatusPrinter(out io.Writer) *statusPrinter {
	return &statusPrinter{out: out, colorize: shouldColorize(out)}
}

func (p *statusPrinter) section(title string) {
	header := "== " + strings.TrimSpace(title) + " =="
	fmt.Fprintln(p.out, p.paint(text.Colors{text.FgBlue, text.Bold}, header))
	fmt.Fprintln(p.out, p.paint(text.Colors{text.FgBlue}, strings.Repeat("-", len(header))))
}

func (p *statusPrinter) line(label string, kind statusKind, message string) {
	k := statusKinds[kind]
	value := "[" + k.label + "]"
	if message != "" {
		value += " " + message
	}
	fmt.Fprintf(p.out, "  %-*s %s\n", statusLabelWidth, label+":", p.paint(k.colors, value))
}

func (p *statusPrinter) paint(colors text.Colors, s string) string {
	if !p.colorize {
		return s
	}
	return colors.Sprint(s)
}

func renderStatus(out io.Writer, status api.Status, baseURL string) {
	p := newStatusPrinter(out)

	p.section("Daemon")
	ready := statusOK
	if !status.Ready {
		ready = statusWarn
	}
	p.line("Address", statusInfo, baseURL)
	p.line("PID", statusInfo, strconv.Itoa(status.PID))
	p.line("Ready", ready, yesNo(status.Ready))
	fmt.Fprintln(out)

	p.section("Database")
	db := status.Database
	dbKind := statusOK
	switch {
	case !db.Reachable:
		dbKind = statusError
	case !db.SchemaCurrent:
		dbKind = statusWarn
	}
	detail := db.Driver + " " + db.Location
	if db.Error != "" {
		detail += " (" + db.Error + ")"
	}
	p.line("Store", dbKind, detail)
	p.line("Schema", dbKind, fmt.Sprintf("version %d", db.SchemaVersion))
	p.line("Queries", statusInfo, strconv.Itoa(db.TotalQueries))
	p.line("Articles", statusInfo, strconv.Itoa(db.TotalArticles))
	fmt.Fprintln(out)

	p.section("Stages")
	for _, st := range status.Stages {
		kind := statusOK
		if !st.Ready {
			kind = statusError
		}
		p.line(st.Name, kind, st.Detail)
	}
}

func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
