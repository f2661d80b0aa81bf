package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/gregLibert/tachograph-card/pkg/iso7816"
	"github.com/gregLibert/tachograph-card/pkg/pcsc"
	"github.com/gregLibert/tachograph-card/pkg/tacho"
)

type config struct {
	reader  string
	gen2    bool
	wait    time.Duration
	list    bool
	apps    bool
	verbose bool
}

func parseFlags() config {
	var cfg config
	flag.StringVar(&cfg.reader, "reader", "", "use the first reader whose name contains this text")
	flag.BoolVar(&cfg.gen2, "gen2", false, "read the smart tachograph (second generation) application")
	flag.DurationVar(&cfg.wait, "wait", 0, "wait up to this long for a card to be inserted")
	flag.BoolVar(&cfg.list, "list", false, "list readers and exit")
	flag.BoolVar(&cfg.apps, "apps", false, "list the applications found in EF.DIR before reading")
	flag.BoolVar(&cfg.verbose, "v", false, "print every command and response")
	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()

	if cfg.list {
		listReaders()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// --- 1. Hardware Setup ---
	reader, err := connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Error connecting to card: %v", explain(err))
	}
	defer closeReader(reader)
	fmt.Printf(">> Using reader: %s\n", reader.Name())

	// --- 2. Logic Setup ---
	client := iso7816.NewClient(reader)
	cls, _ := iso7816.NewClass(0x00)

	// --- 3. Execution Flow ---
	if cfg.apps {
		listApplications(client, cls, cfg.verbose)
	}

	df := tacho.TachographDF
	if cfg.gen2 {
		df = tacho.SmartTachographDF
	}

	session := tacho.NewSession(client, tacho.WithDF(df), tacho.WithClass(cls))
	id, err := session.Run()
	if cfg.verbose {
		printSteps(session.Steps())
	}
	if err != nil {
		closeReader(reader)
		log.Fatalf("Error reading identification: %v", explain(err))
	}

	fmt.Println(id.Describe())
	fmt.Printf("\nDriver card number: %s\n", id.Card.CardNumber)
	if born, err := id.Holder.BirthDate.Time(); err != nil {
		log.Printf("Warning: birth date: %v", err)
	} else if !born.IsZero() {
		fmt.Printf("Born: %s\n", born.Format("2 January 2006"))
	}
}

// closeReader releases the card; log.Fatalf skips deferred calls, so failure paths call it directly.
func closeReader(reader io.Closer) {
	if err := reader.Close(); err != nil {
		log.Printf("Warning: %v", err)
	}
}

func listReaders() {
	readers, err := pcsc.ListReaders()
	if err != nil {
		log.Fatalf("Error listing readers: %v", err)
	}
	if len(readers) == 0 {
		fmt.Println("No smart card reader found.")
		return
	}
	for i, name := range readers {
		fmt.Printf("[%d] %s\n", i, name)
	}
}

func connect(ctx context.Context, cfg config) (*pcsc.Reader, error) {
	opts := pcsc.Options{Reader: cfg.reader, WaitForCard: cfg.wait > 0}
	if cfg.wait > 0 {
		fmt.Printf(">> Waiting up to %s for a card...\n", cfg.wait)
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.wait)
		defer cancel()
	}
	return pcsc.Open(ctx, opts)
}

// listApplications prints EF.DIR. Failures are reported but do not stop the read.
func listApplications(client *iso7816.Client, cls iso7816.Class, verbose bool) {
	fmt.Println("\n=============================================")
	fmt.Println(" APPLICATIONS (EF.DIR)")
	fmt.Println("=============================================")

	dir, trace, err := tacho.DiscoverApplications(client, cls)
	if verbose {
		printTrace(trace)
	}
	if err != nil {
		log.Printf("Warning: application discovery failed: %v", err)
		return
	}
	if len(dir.Applications) == 0 {
		fmt.Println(">> No EF.DIR: first generation card.")
		return
	}
	fmt.Println(dir.Describe())
	if dir.Find(tacho.SmartTachographDF.Bytes()) != nil {
		fmt.Println(">> Smart tachograph application present (use -gen2).")
	}
}

func printSteps(steps []tacho.Step) {
	for _, step := range steps {
		fmt.Printf("\n--- %s ---\n", step.From)
		printTrace(step.Trace)
	}
	fmt.Println()
}

// printTrace splits a trace into logical commands and prints their reports.
func printTrace(trace iso7816.Trace) {
	start := 0
	for i := 1; i <= len(trace); i++ {
		if i < len(trace) && !isFollowUp(trace[i-1], trace[i]) {
			printCommand(trace[start:i])
			start = i
		}
	}
	if start < len(trace) {
		printCommand(trace[start:])
	}
}

func isFollowUp(prev, next iso7816.Transaction) bool {
	if prev.Response == nil {
		return false
	}
	switch prev.Response.Status.SW1() {
	case 0x61:
		return next.Command.Instruction.Raw == iso7816.INS_GET_RESPONSE
	case 0x6C:
		return next.Command.Instruction.Raw == prev.Command.Instruction.Raw
	}
	return false
}

func printCommand(trace iso7816.Trace) {
	if res, err := iso7816.NewSelectResult(trace); err == nil {
		fmt.Println(res.Describe())
		return
	}
	if res, err := iso7816.NewReadBinaryResult(trace); err == nil {
		fmt.Println(res.Describe())
		return
	}
	for _, tx := range trace {
		fmt.Printf("%s -> %s\n", tx.Command, tx.Response)
	}
}

// explain adds a hint for the failures a user can fix.
func explain(err error) error {
	switch {
	case errors.Is(err, iso7816.ErrNoCard):
		return fmt.Errorf("%w (insert a driver card, or use -wait)", err)
	case errors.Is(err, iso7816.ErrReaderUnavailable):
		return fmt.Errorf("%w (check the reader connection, see -list)", err)
	}
	var se *iso7816.StatusError
	if errors.As(err, &se) && se.Status == iso7816.SW_ERR_FILE_NOT_FOUND {
		return fmt.Errorf("%w (not a tachograph card, or try -gen2)", err)
	}
	return err
}
