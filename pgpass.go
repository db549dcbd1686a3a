package pgwire

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jackc/pgpassfile"
)

// PasswordFromPgpass resolves a password for host/port/database/user from a
// .pgpass-formatted file, following the same lookup rules pgx's dependents
// use: an exact field match or "*" wildcard per field, first matching line
// wins. Returns "", false if no entry matches or the file does not exist.
func PasswordFromPgpass(path string, host string, port int, database, user string) (string, bool) {
	passfile, err := pgpassfile.ReadFile(path)
	if err != nil {
		return "", false
	}

	entry := passfile.FindEntry(host, strconv.Itoa(port), database, user)
	if entry == nil {
		return "", false
	}

	return entry.Password, true
}

// WithPgpass configures a Connection to resolve its password from a
// .pgpass-formatted file at path, looked up at Connect time against the
// host/port/database/user already configured. Connect fails if no entry
// matches. A password set with WithPassword takes precedence, and the file
// is then not read.
func WithPgpass(path string) OptionFn {
	return func(cfg *Config) {
		cfg.pgpassPath = path
	}
}

// WithDefaultPgpass is WithPgpass against the conventional ~/.pgpass
// location. A no-op if the home directory cannot be determined.
func WithDefaultPgpass() OptionFn {
	return func(cfg *Config) {
		home, err := os.UserHomeDir()
		if err != nil {
			return
		}
		cfg.pgpassPath = filepath.Join(home, ".pgpass")
	}
}

// resolvePassword fills cfg.Password from cfg.pgpassPath when one was
// configured and no explicit password is already set (spec.md §2: this
// module never reads environment or config files on its own initiative,
// except for this opt-in path).
func (cfg *Config) resolvePassword() error {
	if cfg.Password != "" || cfg.pgpassPath == "" {
		return nil
	}

	password, ok := PasswordFromPgpass(cfg.pgpassPath, cfg.Host, cfg.Port, cfg.Database, cfg.User)
	if !ok {
		return fmt.Errorf("pgwire: no .pgpass entry for %s:%d database=%q user=%q", cfg.Host, cfg.Port, cfg.Database, cfg.User)
	}

	cfg.Password = password
	return nil
}
