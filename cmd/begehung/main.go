package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"begehung/begehung"
	"begehung/httpapi"
)

const usage = `usage: begehung [global flags] <command> [flags]

commands:
  variants   list the variant names
  template   show, export or replace the checklist template of a variant
  compose    write the blank checklist for one or more variants
  save       record an edited checklist as a new inspection
  import     merge a CSV of inspections into the table
  report     filter the table and export it as CSV/XLSX
  serve      run the JSON/HTTP API
  help       explain variants, statuses and CSV fields
`

const helpText = `Begehungen are recorded with modular variants (Bronze/Silver/Gold by default)
that can be combined freely, e.g. Bronze+Gold.

  compose   builds the checklist for the selected variants; a point that appears in
            several variants is listed once, as defined by the first selected variant.
  save      reads the edited checklist and stores one row per point under a new
            inspection id (INS-YYYYMMDDhhmmss).
  import    merges inspections exported by this or other tools; identical rows are
            stored once.
  template  adjusts a variant's template; changes apply to new inspections only.
  report    filters by technician, city, status and variants and exports CSV/XLSX.

statuses: ok, open, critical, not-applicable (offen, kritisch, n/a are accepted)

CSV fields:
  inspection_id,date,technician,customer_name,customer_email,customer_phone,
  address,city,plz,bundesland,liegenschaftsnummer,variant_combo,item_id,
  item_group,item_text,status,value,unit,notes
`

type globalOptions struct {
	configPath string
	dbPath     string
	debug      bool
	logMode    string
	idPrefix   string
}

func main() {
	var opts globalOptions
	fs := flag.NewFlagSet("begehung", flag.ExitOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage); fs.PrintDefaults() }
	fs.StringVar(&opts.configPath, "config", "", "YAML config file path.")
	fs.StringVar(&opts.dbPath, "db", "begehung.db", "SQLite session database path.")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug logs.")
	fs.StringVar(&opts.logMode, "log-mode", "dev", "Log format: dev or prod.")
	fs.StringVar(&opts.idPrefix, "id-prefix", begehung.DefaultIDPrefix, "Inspection id prefix.")
	_ = fs.Parse(os.Args[1:])

	visited := map[string]bool{}
	fs.Visit(func(f *flag.Flag) {
		visited[f.Name] = true
	})

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		os.Exit(2)
	}
	cmd, cmdArgs := args[0], args[1:]
	if cmd == "help" {
		fmt.Print(helpText)
		return
	}

	fileCfg := &begehung.FileConfig{}
	if opts.configPath != "" {
		cfg, err := begehung.LoadConfig(opts.configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		fileCfg = cfg
	}

	// Merge config + CLI overrides
	if visited["db"] || fileCfg.DB == "" {
		fileCfg.DB = opts.dbPath
	}
	if visited["debug"] {
		fileCfg.Debug = opts.debug
	}
	if visited["log-mode"] || fileCfg.LogMode == "" {
		fileCfg.LogMode = opts.logMode
	}
	if visited["id-prefix"] || fileCfg.IDPrefix == "" {
		fileCfg.IDPrefix = opts.idPrefix
	}

	log, err := begehung.NewLogger(fileCfg.LogMode, fileCfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cmd, cmdArgs, fileCfg, log); err != nil {
		log.Errorw("command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func run(cmd string, args []string, cfg *begehung.FileConfig, log *zap.SugaredLogger) error {
	readOnly := cmd == "variants" || cmd == "compose" || cmd == "report"
	if readOnly {
		// A fresh DB has nothing to read yet; open it writable so it gets seeded.
		if _, err := os.Stat(cfg.DB); err != nil {
			readOnly = false
		}
	}
	session, err := begehung.OpenSession(begehung.SessionConfig{
		DBPath:   cfg.DB,
		ReadOnly: readOnly,
		IDPrefix: cfg.IDPrefix,
		Seed:     cfg.Variants.Items,
	}, log)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer session.Close()

	switch cmd {
	case "variants":
		for _, name := range session.Registry().ListVariants() {
			fmt.Println(name)
		}
		return nil
	case "template":
		return runTemplate(session, args)
	case "compose":
		return runCompose(session, args)
	case "save":
		return runSave(session, args)
	case "import":
		return runImport(session, args, cfg)
	case "report":
		return runReport(session, args)
	case "serve":
		return runServe(session, args, cfg, log)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runTemplate(session *begehung.Session, args []string) error {
	var variant, exportPath, importPath string
	fs := flag.NewFlagSet("template", flag.ExitOnError)
	fs.StringVar(&variant, "variant", "", "Variant name (required).")
	fs.StringVar(&exportPath, "export", "", "Write the template CSV to this path ('-' for stdout).")
	fs.StringVar(&importPath, "import", "", "Replace the template with this CSV.")
	_ = fs.Parse(args)

	if strings.TrimSpace(variant) == "" {
		return errors.New("missing -variant")
	}
	if importPath != "" {
		if _, err := session.Registry().GetItems(variant); err != nil {
			return err
		}
		f, err := os.Open(importPath)
		if err != nil {
			return err
		}
		items, err := begehung.ImportTemplateCSV(f)
		_ = f.Close()
		if err != nil {
			return err
		}
		if err := session.ReplaceTemplate(variant, items); err != nil {
			return err
		}
		fmt.Printf("template %s updated (%d items)\n", variant, len(items))
		return nil
	}

	b, err := session.ExportTemplateCSV(variant)
	if err != nil {
		return err
	}
	if exportPath == "" {
		exportPath = begehung.TemplateFileName(variant)
	}
	return writeOutput(exportPath, b)
}

func runCompose(session *begehung.Session, args []string) error {
	var variants, out string
	fs := flag.NewFlagSet("compose", flag.ExitOnError)
	fs.StringVar(&variants, "variants", "", "Comma-separated variant names, e.g. Bronze,Gold.")
	fs.StringVar(&out, "out", "-", "Checklist CSV output path ('-' for stdout).")
	_ = fs.Parse(args)

	rows, err := session.Compose(splitList(variants))
	if err != nil {
		return err
	}
	b, err := begehung.ExportChecklistCSV(rows)
	if err != nil {
		return err
	}
	return writeOutput(out, b)
}

func runSave(session *begehung.Session, args []string) error {
	var (
		checklistPath string
		variants      string
		date          string
		technician    string
		customer      begehung.Customer
		site          begehung.Site
		out           string
	)
	fs := flag.NewFlagSet("save", flag.ExitOnError)
	fs.StringVar(&checklistPath, "checklist", "", "Edited checklist CSV (required).")
	fs.StringVar(&variants, "variants", "", "Comma-separated variant names the checklist was composed from.")
	fs.StringVar(&date, "date", "", "Inspection date (YYYY-MM-DD). Defaults to today.")
	fs.StringVar(&technician, "technician", "", "Technician or team.")
	fs.StringVar(&customer.Name, "customer-name", "", "Customer / contact person.")
	fs.StringVar(&customer.Email, "customer-email", "", "Customer e-mail.")
	fs.StringVar(&customer.Phone, "customer-phone", "", "Customer phone.")
	fs.StringVar(&site.Address, "address", "", "Site address.")
	fs.StringVar(&site.City, "city", "", "Site city.")
	fs.StringVar(&site.PostalCode, "plz", "", "Site postal code.")
	fs.StringVar(&site.Region, "bundesland", "", "Site federal state.")
	fs.StringVar(&site.PropertyNumber, "liegenschaftsnummer", "", "Property number.")
	fs.StringVar(&out, "out", "", "Also write the saved inspection as CSV to this path.")
	_ = fs.Parse(args)

	if checklistPath == "" {
		return errors.New("missing -checklist")
	}
	day := time.Now()
	if strings.TrimSpace(date) != "" {
		d, ok := begehung.ParseDate(date)
		if !ok {
			return fmt.Errorf("unparsable -date %q", date)
		}
		day = d
	}
	f, err := os.Open(checklistPath)
	if err != nil {
		return err
	}
	rows, err := begehung.ImportChecklistCSV(f)
	_ = f.Close()
	if err != nil {
		return err
	}

	res, err := session.SaveInspection(rows, begehung.InspectionMeta{
		Date:       day,
		Technician: technician,
		Customer:   customer,
		Site:       site,
		Variants:   splitList(variants),
	})
	if err != nil {
		return err
	}
	if res.InspectionID == "" {
		return nil
	}
	fmt.Printf("inspection %s saved (%d rows)\n", res.InspectionID, len(res.Records))
	if out != "" {
		b, err := begehung.ExportCSV(res.Records)
		if err != nil {
			return err
		}
		return writeOutput(out, b)
	}
	return nil
}

func runImport(session *begehung.Session, args []string, cfg *begehung.FileConfig) error {
	var in, archiveDir, errorDir string
	var dryRun bool
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	fs.StringVar(&in, "in", "", "CSV file to merge (required).")
	fs.StringVar(&archiveDir, "archive-dir", cfg.ArchiveDir, "Move the file here after a successful merge.")
	fs.StringVar(&errorDir, "error-dir", cfg.ErrorDir, "Move malformed files here.")
	fs.BoolVar(&dryRun, "dry-run", false, "Only parse and preview the file.")
	_ = fs.Parse(args)

	if in == "" {
		return errors.New("missing -in")
	}
	res, merged, err := session.ImportFile(in, archiveDir, errorDir, dryRun)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	if dryRun {
		b, err := begehung.ExportCSV(res.Preview(5))
		if err != nil {
			return err
		}
		fmt.Printf("%d rows read, preview:\n%s", len(res.Records), b)
		return nil
	}
	fmt.Printf("%d rows merged (%d duplicates removed, %d rows in table)\n", merged.Incoming, merged.Removed, merged.Total)
	return nil
}

func runReport(session *begehung.Session, args []string) error {
	var technician, city, status, variant, csvOut, xlsxOut string
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	fs.StringVar(&technician, "technician", "", "Technician contains (case-insensitive).")
	fs.StringVar(&city, "city", "", "City contains (case-insensitive).")
	fs.StringVar(&status, "status", "any", "Status: any, ok, open, critical, not-applicable.")
	fs.StringVar(&variant, "variant", "", "Variant combo contains (case-insensitive), e.g. Bronze+Gold.")
	fs.StringVar(&csvOut, "csv", "", "CSV output path ('-' for stdout).")
	fs.StringVar(&xlsxOut, "xlsx", "", "XLSX output path.")
	_ = fs.Parse(args)

	st, err := begehung.ParseStatusFilter(status)
	if err != nil {
		return err
	}
	crit := begehung.Criteria{
		TechnicianContains:   technician,
		CityContains:         city,
		Status:               st,
		VariantComboContains: variant,
	}
	if session.Table().Len() == 0 {
		fmt.Fprintln(os.Stderr, "no inspections recorded yet")
		return nil
	}
	if csvOut == "" && xlsxOut == "" {
		csvOut = "-"
	}
	if csvOut != "" {
		b, err := session.ExportCSV(crit)
		if err != nil {
			return err
		}
		if err := writeOutput(csvOut, b); err != nil {
			return err
		}
	}
	if xlsxOut != "" {
		b, err := session.ExportXLSX(crit)
		if err != nil {
			return err
		}
		if err := writeOutput(xlsxOut, b); err != nil {
			return err
		}
	}
	fmt.Fprintf(os.Stderr, "%d rows in filter\n", len(session.Filter(crit)))
	return nil
}

func runServe(session *begehung.Session, args []string, cfg *begehung.FileConfig, log *zap.SugaredLogger) error {
	var listen string
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	fs.StringVar(&listen, "listen", "", "Listen address (overrides config listen_addr).")
	_ = fs.Parse(args)

	addr := cfg.ListenAddr
	if listen != "" {
		addr = listen
	}
	if addr == "" {
		addr = "127.0.0.1:8080"
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(httpapi.NewHandler(session), log)
	log.Infow("listening", "addr", addr, "db", cfg.DB)
	return router.Run(addr)
}

func splitList(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeOutput(path string, b []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(b)
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", path)
	return nil
}
