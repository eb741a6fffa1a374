package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lotas/tabtray/internal/applog"
	"github.com/lotas/tabtray/internal/config"
	"github.com/lotas/tabtray/internal/creditcards"
	"github.com/lotas/tabtray/internal/export"
	"github.com/lotas/tabtray/internal/firefox"
	"github.com/lotas/tabtray/internal/server"
	"github.com/lotas/tabtray/internal/storage"
	"github.com/lotas/tabtray/internal/tabstray"
	"github.com/lotas/tabtray/internal/tui"
	"github.com/lotas/tabtray/internal/types"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "cards":
			runCards(os.Args[2:])
			return
		case "export":
			runExport(os.Args[2:])
			return
		case "profiles":
			runProfiles()
			return
		case "help", "--help", "-h":
			printHelp()
			return
		}
	}

	fs := flag.NewFlagSet("tabtray", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file (default: ~/.config/tabtray/config.toml)")
	profileName := fs.String("profile", "", "Firefox profile name")
	liveMode := fs.Bool("live", false, "Start in live mode (connect to extension)")
	port := fs.Int("port", 0, "WebSocket port for live mode (default: 19191)")
	dbPath := fs.String("db", "", "Database path")
	fs.Parse(os.Args[1:])

	cfg := loadConfig(*configPath)
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "profile":
			cfg.Profile = *profileName
		case "live":
			cfg.Live = *liveMode
		case "port":
			cfg.Port = *port
		case "db":
			cfg.DBPath = expandFlagPath(*dbPath)
		}
	})
	defer applog.Close()

	var profile types.Profile
	if !cfg.Live {
		profiles, err := firefox.DiscoverProfiles()
		if err != nil {
			fatalf("Error discovering Firefox profiles: %v\n", err)
		}
		profile, err = firefox.ResolveProfile(profiles, cfg.Profile)
		if err != nil {
			fatalf("Error: %v\n", err)
		}
	}

	db, cards := openCardStore(cfg.DBPath)
	defer db.Close()

	store := tabstray.NewStore(tabstray.State{})
	defer store.Close()

	applog.Info("app.start", "live", cfg.Live, "profile", profile.Name, "port", cfg.Port)
	err := tui.Run(tui.Options{
		Store:   store,
		Server:  server.New(cfg.Port),
		Cards:   cards,
		Profile: profile,
		Live:    cfg.Live,
	})
	if err != nil {
		applog.Error("app.exit", err)
		fatalf("Error: %v\n", err)
	}
}

func printHelp() {
	fmt.Print(`tabtray — browser tabs tray for the terminal

Usage:
  tabtray                                   Start the tray (default)
    --config <path>        Config file (default: ~/.config/tabtray/config.toml)
    --profile <name>       Firefox profile name (default: the default profile)
    --live                 Live mode (connect to the extension)
    --port <n>             WebSocket port for live mode (default: 19191)
    --db <path>            Database path (default: ~/.local/share/tabtray/tabtray.db)

  tabtray profiles                          List Firefox profiles

  tabtray export                            Export tabs to stdout or file
    --profile <name>       Firefox profile name
    --json                 Export as JSON instead of markdown
    --out <file>           Output file path (default: stdout)
    --live                 Export from live extension instead of session file
    --port <n>             WebSocket port for live mode (default: 19191)

  tabtray cards list                        List saved credit cards
  tabtray cards add                         Save a credit card
    --name <text>          Name on card
    --number <digits>      Card number
    --month <n>            Expiry month
    --year <n>             Expiry year
    --type <name>          Card type (default: detected from the number)
  tabtray cards show <guid>                 Print a card's full number
  tabtray cards delete <guid> [--yes]       Delete a saved card

Environment:
  TABTRAY_CONFIG         Config file path
  TABTRAY_PROFILE        Default Firefox profile (overridden by --profile flag)
  TABTRAY_DB             Database path
  TABTRAY_LOG_DIR        Log directory
  TABTRAY_PORT           WebSocket port
  TABTRAY_LIVE           Start in live mode (true/false)
`)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
	applog.Close()
	os.Exit(1)
}

// loadConfig reads the config file and starts the log.
func loadConfig(path string) config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		fatalf("Error loading config: %v\n", err)
	}
	if err := applog.Init(cfg.LogDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
	return cfg
}

// expandFlagPath expands a path flag the way the config file's paths are.
func expandFlagPath(path string) string {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	return expanded
}

func openCardStore(dbPath string) (*sql.DB, *storage.CreditCardStore) {
	db, err := storage.OpenDB(dbPath)
	if err != nil {
		fatalf("Error opening database: %v\n", err)
	}
	secret, err := storage.LoadOrCreateSecret(storage.SecretPath(dbPath))
	if err != nil {
		db.Close()
		fatalf("Error loading card key: %v\n", err)
	}
	cards, err := storage.NewCreditCardStore(db, secret)
	if err != nil {
		db.Close()
		fatalf("Error: %v\n", err)
	}
	return db, cards
}

func runProfiles() {
	profiles, err := firefox.DiscoverProfiles()
	if err != nil {
		fatalf("Error discovering Firefox profiles: %v\n", err)
	}
	if len(profiles) == 0 {
		fatalf("No Firefox profiles found.\n")
	}

	for _, p := range profiles {
		suffix := ""
		if p.IsDefault {
			suffix = " [default]"
		}
		fmt.Printf("%s (%s)%s\n", p.Name, p.Path, suffix)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file")
	profileName := fs.String("profile", "", "Firefox profile name")
	jsonFlag := fs.Bool("json", false, "Export as JSON instead of markdown")
	outFile := fs.String("out", "", "Output file path (default: stdout)")
	liveMode := fs.Bool("live", false, "Export from live extension instead of session file")
	port := fs.Int("port", 0, "WebSocket port for live mode")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	defer applog.Close()
	if *profileName != "" {
		cfg.Profile = *profileName
	}
	if *port != 0 {
		cfg.Port = *port
	}

	var data *types.SessionData
	var err error
	if *liveMode {
		data, err = exportLive(cfg.Port)
	} else {
		data, err = resolveSession(cfg.Profile)
	}
	if err != nil {
		fatalf("Error: %v\n", err)
	}

	var output string
	if *jsonFlag {
		output, err = export.JSON(data)
		if err != nil {
			fatalf("Error generating JSON: %v\n", err)
		}
	} else {
		output = export.Markdown(data)
	}

	if *outFile != "" {
		if err := os.WriteFile(*outFile, []byte(output), 0o644); err != nil {
			fatalf("Error writing file: %v\n", err)
		}
		fmt.Fprintf(os.Stderr, "Exported to %s\n", *outFile)
		return
	}
	fmt.Print(output)
}

// exportLive waits for the extension's snapshot, then asks for synced tabs
// and waits briefly for them.
func exportLive(port int) (*types.SessionData, error) {
	srv := server.New(port)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go srv.ListenAndServe(ctx)

	fmt.Fprintf(os.Stderr, "Waiting for Firefox extension on port %d...\n", port)

	var data *types.SessionData
	timeout := time.After(10 * time.Second)
	for {
		select {
		case msg := <-srv.Messages():
			switch msg.Type {
			case server.MsgSnapshot:
				snap, err := server.ParseSnapshot(msg)
				if err != nil {
					return nil, err
				}
				data = snap
				srv.Send(server.OutgoingMsg{ID: "export-sync", Action: server.ActionSyncTabs})
				timeout = time.After(3 * time.Second)
			case server.MsgSyncedTabs:
				if data == nil {
					continue
				}
				tabs, err := server.ParseSyncedTabs(msg)
				if err == nil {
					data.SyncedTabs = tabs
				}
				return data, nil
			}
		case <-timeout:
			if data != nil {
				return data, nil
			}
			return nil, fmt.Errorf("timed out waiting for extension (10s)")
		}
	}
}

// resolveSession reads session data for the named profile, or the default
// profile when the name is empty.
func resolveSession(profileName string) (*types.SessionData, error) {
	profiles, err := firefox.DiscoverProfiles()
	if err != nil {
		return nil, fmt.Errorf("discover profiles: %w", err)
	}
	profile, err := firefox.ResolveProfile(profiles, profileName)
	if err != nil {
		return nil, err
	}

	session, err := firefox.ReadSessionFile(profile.Path)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	session.Profile = profile
	return session, nil
}

func runCards(args []string) {
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		runCardsList(args[1:])
	case "add":
		runCardsAdd(args[1:])
	case "show":
		runCardsShow(args[1:])
	case "delete":
		runCardsDelete(args[1:])
	default:
		fatalf("Unknown cards command %q. Run 'tabtray help'.\n", args[0])
	}
}

// cardsFlags registers the flags every cards subcommand takes.
func cardsFlags(fs *flag.FlagSet) (configPath, dbPath *string) {
	configPath = fs.String("config", "", "Config file")
	dbPath = fs.String("db", "", "Database path")
	return
}

func cardsSetup(configPath, dbPath string) (*sql.DB, *storage.CreditCardStore) {
	cfg := loadConfig(configPath)
	if dbPath != "" {
		cfg.DBPath = expandFlagPath(dbPath)
	}
	return openCardStore(cfg.DBPath)
}

func runCardsList(args []string) {
	fs := flag.NewFlagSet("cards list", flag.ExitOnError)
	configPath, dbPath := cardsFlags(fs)
	fs.Parse(args)

	db, store := cardsSetup(*configPath, *dbPath)
	defer db.Close()
	defer applog.Close()

	cards, err := store.ListCreditCards(context.Background())
	if err != nil {
		fatalf("Error listing cards: %v\n", err)
	}
	if len(cards) == 0 {
		fmt.Println("No saved cards.")
		return
	}
	for _, c := range cards {
		fmt.Printf("%s  %-10s %s  %02d/%d  %s\n", c.GUID, c.CardType, c.ObscuredNumber(), c.ExpiryMonth, c.ExpiryYear, c.BillingName)
	}
}

func runCardsAdd(args []string) {
	fs := flag.NewFlagSet("cards add", flag.ExitOnError)
	configPath, dbPath := cardsFlags(fs)
	name := fs.String("name", "", "Name on card")
	number := fs.String("number", "", "Card number")
	month := fs.Int("month", 0, "Expiry month")
	year := fs.Int("year", 0, "Expiry year")
	cardType := fs.String("type", "", "Card type")
	fs.Parse(args)

	fields := types.UpdatableCreditCardFields{
		BillingName: strings.TrimSpace(*name),
		CardNumber:  creditcards.NormalizeNumber(*number),
		ExpiryMonth: *month,
		ExpiryYear:  *year,
		CardType:    *cardType,
	}
	if fields.CardType == "" {
		fields.CardType = creditcards.DetectCardType(fields.CardNumber)
	}
	if err := creditcards.Validate(fields, time.Now()); err != nil {
		fatalf("Invalid card: %v\n", err)
	}

	db, store := cardsSetup(*configPath, *dbPath)
	defer db.Close()
	defer applog.Close()

	card, err := store.AddCreditCard(context.Background(), fields)
	if err != nil {
		fatalf("Error saving card: %v\n", err)
	}
	applog.Info("cards.add", "guid", card.GUID)
	fmt.Printf("Saved %s %s as %s\n", card.CardType, card.ObscuredNumber(), card.GUID)
}

func runCardsShow(args []string) {
	fs := flag.NewFlagSet("cards show", flag.ExitOnError)
	configPath, dbPath := cardsFlags(fs)
	fs.Parse(reorderArgs(args))

	if fs.NArg() < 1 {
		fatalf("Usage: tabtray cards show <guid>\n")
	}

	db, store := cardsSetup(*configPath, *dbPath)
	defer db.Close()
	defer applog.Close()

	number, err := store.DecryptCardNumber(context.Background(), fs.Arg(0))
	if errors.Is(err, storage.ErrNotFound) {
		fatalf("No card with GUID %s\n", fs.Arg(0))
	}
	if err != nil {
		fatalf("Error reading card: %v\n", err)
	}
	fmt.Println(number)
}

func runCardsDelete(args []string) {
	fs := flag.NewFlagSet("cards delete", flag.ExitOnError)
	configPath, dbPath := cardsFlags(fs)
	yes := fs.Bool("yes", false, "Skip confirmation prompt")
	fs.Parse(reorderArgs(args))

	if fs.NArg() < 1 {
		fatalf("Usage: tabtray cards delete <guid> [--yes]\n")
	}
	guid := fs.Arg(0)

	db, store := cardsSetup(*configPath, *dbPath)
	defer db.Close()
	defer applog.Close()

	card, err := store.GetCreditCard(context.Background(), guid)
	if errors.Is(err, storage.ErrNotFound) {
		fatalf("No card with GUID %s\n", guid)
	}
	if err != nil {
		fatalf("Error reading card: %v\n", err)
	}

	if !*yes {
		fmt.Printf("Delete %s %s? [y/N] ", card.CardType, card.ObscuredNumber())
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("Aborted.")
			return
		}
	}

	if err := store.DeleteCreditCard(context.Background(), guid); err != nil {
		fatalf("Error deleting card: %v\n", err)
	}
	applog.Info("cards.delete", "guid", guid)
	fmt.Println("Card deleted.")
}

// reorderArgs moves flag arguments before positional arguments so that
// flag.Parse handles them correctly (it stops at the first non-flag arg).
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if strings.HasPrefix(args[i], "-") {
			flags = append(flags, args[i])
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") && !isBoolFlag(args[i]) {
				flags = append(flags, args[i+1])
				i++
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}

func isBoolFlag(arg string) bool {
	name := strings.TrimLeft(arg, "-")
	return name == "yes" || strings.Contains(name, "=")
}
