// Command inspect runs the tabroom extractors over one page and prints what
// they found. Feed it a saved page on stdin, or --url to fetch a live one
// (with --token for pages behind the login).
package main

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jessevdk/go-flags"

	"github.com/cpacia/tab-server/tabroom"
)

type options struct {
	URL           string        `long:"url" description:"Page to fetch, e.g. https://www.tabroom.com/index/paradigm.mhtml?judge_person_id=1"`
	Token         string        `long:"token" env:"TAB_TOKEN" description:"Session cookie value for pages behind the login"`
	Name          string        `long:"name" description:"Report which table rows match this competitor name"`
	JSON          bool          `long:"json" description:"Print the report as JSON"`
	Timeout       time.Duration `long:"timeout" default:"20s" description:"Fetch timeout"`
	ParadigmChars int           `long:"paradigm-chars" default:"400" description:"Paradigm characters to print, 0 for all"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			return
		}
		os.Exit(1)
	}

	var (
		source string
		page   string
	)
	switch {
	case opts.URL != "":
		p, err := fetch(opts)
		if err != nil {
			log.Fatalf("fetch failed: %v", err)
		}
		source, page = p.URL, p.Body

	case stdinHasData():
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatalf("read stdin: %v", err)
		}
		source, page = "stdin", string(b)

	default:
		log.Fatalf("please supply --url or pipe a saved page to stdin")
	}

	rep := buildReport(source, page, opts.Name)
	if opts.JSON {
		enc := sonic.ConfigStd.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			log.Fatalf("encode: %v", err)
		}
		return
	}
	rep.print(os.Stdout, opts.ParadigmChars)
}

func fetch(opts options) (*tabroom.Page, error) {
	c, err := tabroom.New(tabroom.Config{Timeout: opts.Timeout})
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()
	return c.Get(ctx, opts.Token, opts.URL)
}

func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
