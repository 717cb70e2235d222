package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"

	"github.com/csg33k/fuel-receipts/internal/adapters/refdata"
	"github.com/csg33k/fuel-receipts/internal/rules"
)

const (
	binary        = "bin/fuel-receipts-server"
	migrationsDir = "./internal/adapters/sqlite/migrations"
)

func dbPath() string {
	if p := os.Getenv("DB_PATH"); p != "" {
		return p
	}
	return "receipts.db"
}

// Dbup runs dbmate to apply db migrations. The server applies the same files
// itself when AUTO_MIGRATE is on.
func Dbup() error {
	if _, err := exec.LookPath("dbmate"); err != nil {
		fmt.Println(">> dbmate not found; install with:")
		fmt.Println("   go install github.com/amacneil/dbmate/v2@latest")
		return err
	}
	fmt.Println(">> dbmate up", dbPath())
	return sh.Run("dbmate", "--no-dump-schema", "--migrations-dir", migrationsDir, "--url", "sqlite:"+dbPath(), "up")
}

// Build tidies deps, then compiles to ./bin/fuel-receipts-server.
func Build() error {
	mg.Deps(Tidy)
	fmt.Println(">> Building server binary...")
	return sh.Run("go", "build", "-o", binary, "./cmd/server")
}

// Run builds then executes the binary.
func Run() error {
	mg.Deps(Build)
	fmt.Println(">> Starting server...")
	return sh.RunV("./" + binary)
}

// Dev starts the server via go run with development logging.
func Dev() error {
	fmt.Println(">> Dev mode: go run ./cmd/server ...")
	cmd := exec.Command("go", "run", "./cmd/server")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), "APP_ENV=development")
	return cmd.Run()
}

// Tidy runs go mod tidy.
func Tidy() error {
	fmt.Println(">> go mod tidy...")
	return sh.Run("go", "mod", "tidy")
}

// Test runs all unit tests with the race detector.
func Test() error {
	fmt.Println(">> Running tests...")
	return sh.RunV("go", "test", "-race", "./...")
}

// Lint runs golangci-lint if available.
func Lint() error {
	if _, err := exec.LookPath("golangci-lint"); err != nil {
		fmt.Println(">> golangci-lint not found; skipping.")
		return nil
	}
	return sh.Run("golangci-lint", "run", "./...")
}

// Rules prints the rule table in evaluation order and checks it against the
// merchant reference data. Fails when any combination does not resolve.
func Rules() error {
	catalog, err := refdata.LoadFile(os.Getenv("REFDATA_PATH"))
	if err != nil {
		return err
	}
	r := rules.MustNew()

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RULE\tSPECIFICITY\tMERCHANT\tJURISDICTION\tTENDER")
	for _, rule := range r.Rules() {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%v\t%v\n", rule.Name, rule.Specificity(), rule.Merchant, rule.Jurisdiction, rule.Tender)
	}
	tw.Flush()

	errs := r.Verify(catalog.Merchants())
	for _, e := range errs {
		fmt.Println("!!", e)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d rule table defects", len(errs))
	}
	fmt.Printf(">> %d merchants verified\n", len(catalog.Merchants()))
	return nil
}

// Clean removes build artifacts, the local SQLite DB, and generated receipts.
func Clean() error {
	fmt.Println(">> Cleaning...")
	os.RemoveAll("bin")
	os.Remove(dbPath())
	out := os.Getenv("OUTPUT_DIR")
	if out == "" {
		out = "receipts"
	}
	return os.RemoveAll(out)
}

// Install builds and installs the binary to $GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	return sh.Run("go", "install", "./cmd/server")
}

func init() {
	err := godotenv.Load()
	if err != nil {
		slog.Warn("error loading .env file", "err", err)
	}
}
