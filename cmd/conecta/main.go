package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"conecta/internal"
	"conecta/internal/config"
	"conecta/internal/ledger"
	"conecta/internal/redeem"
	"conecta/internal/server"
	"conecta/internal/sheet"
	"conecta/internal/storage"
	"conecta/internal/util"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	src, err := sheet.MakeSource(cfg)
	must(err)
	builder := ledger.NewBuilder(src, cfg.Tables)
	svc := ledger.NewService(builder)
	ctx := context.Background()

	cmd := os.Args[1]
	switch cmd {
	case "lookup":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		doc := fs.String("doc", "", "CPF (11 digits) or CNPJ (14 digits)")
		_ = fs.Parse(os.Args[2:])
		entry, err := svc.FindByDocument(ctx, *doc)
		must(err)
		printEntry(entry)
	case "search":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		query := fs.String("q", "", "name or document")
		_ = fs.Parse(os.Args[2:])
		entries, err := svc.Search(ctx, *query)
		must(err)
		for _, entry := range entries {
			printEntry(entry)
		}
	case "history":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		name := fs.String("name", "", "installer name")
		_ = fs.Parse(os.Args[2:])
		events, err := svc.History(ctx, *name)
		must(err)
		if len(events) == 0 {
			fmt.Println("no redemptions recorded")
			return
		}
		for _, ev := range events {
			fmt.Printf("%s  %d points  operator=%s\n", ev.RedeemedAt, ev.Points, ev.Operator)
		}
	case "redeem":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		name := fs.String("name", "", "installer name")
		points := fs.Int64("points", 0, "points to redeem")
		operator := fs.String("operator", "", "operator identity")
		_ = fs.Parse(os.Args[2:])

		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		rec, err := makeRecorder(cfg, db)
		must(err)
		must(rec.Record(ctx, *name, *points, *operator))
		fmt.Printf("redeemed %d points for %s\n", *points, *name)
	case "report:csv":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", filepath.Join(cfg.OutputDir, "relatorio_pontuacao.csv"), "output csv path")
		force := fs.Bool("force", false, "rebuild even if the workbook is unchanged")
		_ = fs.Parse(os.Args[2:])

		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		changed, marker, err := workbookChanged(cfg, db)
		must(err)
		if !changed && !*force {
			fmt.Println("workbook unchanged since last report, use --force to rebuild")
			return
		}

		entries, err := builder.Build(ctx)
		must(err)
		must(ledger.ExportCSV(entries, *out))
		if marker != "" {
			_ = db.SetMetadata(processedKey, marker)
		}
		fmt.Printf("report written: %s (%d rows)\n", *out, len(entries))
	case "report:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", filepath.Join(cfg.OutputDir, "relatorio_pontuacao.xlsx"), "output xlsx path")
		_ = fs.Parse(os.Args[2:])

		entries, err := builder.Build(ctx)
		must(err)
		must(ledger.ExportXLSX(entries, *out))
		fmt.Printf("report written: %s (%d rows)\n", *out, len(entries))
	case "serve":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		addr := fs.String("addr", cfg.ListenAddr, "listen address")
		_ = fs.Parse(os.Args[2:])

		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		// Read-only stores serve lookups without redemption writes.
		rec, err := makeRecorder(cfg, db)
		if err != nil {
			rec = nil
		}

		handler := server.New(svc, rec)
		fmt.Printf("listening on %s\n", *addr)
		must(http.ListenAndServe(*addr, handler.Router()))
	default:
		usage()
		os.Exit(1)
	}
}

const processedKey = "sheet.last_processed"

// workbookChanged compares the workbook file mtime against the stored
// marker. Non-file stores always count as changed.
func workbookChanged(cfg config.Config, db *storage.DB) (bool, string, error) {
	if !strings.EqualFold(cfg.StoreKind, "file") {
		return true, "", nil
	}
	fileSrc := &sheet.FileSource{Path: cfg.SheetPath, Dir: cfg.SheetDir}
	path, err := fileSrc.LatestPath()
	if err != nil {
		return false, "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, "", err
	}
	marker := path + ":" + strconv.FormatInt(info.ModTime().UnixNano(), 10)

	last, err := db.GetMetadata(processedKey)
	if err != nil {
		return false, "", err
	}
	return last == nil || *last != marker, marker, nil
}

func makeRecorder(cfg config.Config, db *storage.DB) (*redeem.Recorder, error) {
	if !strings.EqualFold(cfg.StoreKind, "file") {
		return nil, fmt.Errorf("redemptions can only be recorded on a file store, not %q", cfg.StoreKind)
	}
	fileSrc := &sheet.FileSource{Path: cfg.SheetPath, Dir: cfg.SheetDir}
	path, err := fileSrc.LatestPath()
	if err != nil {
		return nil, err
	}
	return redeem.NewRecorder(path, cfg.Tables, db), nil
}

func printEntry(entry internal.LedgerEntry) {
	doc := "documento protegido"
	if entry.Document != nil {
		doc = util.MaskDocument(*entry.Document)
	}
	fmt.Printf("%s  %s  total=R$%s  points=%d  redeemed=%d  final=%d  value=R$%s\n",
		entry.Name, doc, entry.TotalSales.StringFixed(2),
		entry.GrossPoints, entry.RedeemedPoints, entry.FinalPoints, entry.Value.StringFixed(2))
}

func usage() {
	fmt.Println("usage: conecta <command>")
	fmt.Println("commands:")
	fmt.Println("  lookup --doc=00000000000")
	fmt.Println("  search --q=\"name or document\"")
	fmt.Println("  history --name=\"installer name\"")
	fmt.Println("  redeem --name=... --points=N --operator=...")
	fmt.Println("  report:csv [--out=...csv] [--force]")
	fmt.Println("  report:xlsx [--out=...xlsx]")
	fmt.Println("  serve [--addr=:8080]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
