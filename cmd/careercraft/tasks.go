package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"careercraft/internal/database"
	"careercraft/internal/export"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [consultations|registrations]",
	Short: "Write consultations or registrations to an XLSX file",
	Long: `Write consultations or registrations to an XLSX file in exports.path.

Examples:
  careercraft export consultations
  careercraft export registrations --dir /tmp/reports`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"consultations", "registrations"},
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		return runExport(cmdContext(cmd), args[0], dir)
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot the SQLite database and prune old backups",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runBackup(cmdContext(cmd))
	},
}

func init() {
	exportCmd.Flags().String("dir", "", "output directory (defaults to exports.path)")
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runExport(ctx context.Context, what, dir string) error {
	cfg, logger, closer, err := loadConfigAndLogger("export")
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}
	if dir == "" {
		dir = cfg.Exports.Path
	}

	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	loc := cfg.App.Location()
	var write func(io.Writer) error
	switch what {
	case "consultations":
		list, err := db.ListConsultations(ctx)
		if err != nil {
			return err
		}
		write = func(w io.Writer) error { return export.Consultations(w, list, loc) }
	case "registrations":
		list, err := db.ListRegistrations(ctx)
		if err != nil {
			return err
		}
		write = func(w io.Writer) error { return export.Registrations(w, list, loc) }
	default:
		return fmt.Errorf("unknown export %q, expected consultations or registrations", what)
	}

	path, err := export.SaveFile(dir, what, time.Now().In(loc), write)
	if err != nil {
		return err
	}
	logger.Info().Str("path", path).Msg("Export written")
	fmt.Println(path)
	return nil
}

func runBackup(ctx context.Context) error {
	cfg, logger, closer, err := loadConfigAndLogger("backup")
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	backups := database.NewBackupService(db, cfg.Backup, logger)
	path, err := backups.PerformBackup(ctx)
	if err != nil {
		return err
	}
	backups.CleanupOldBackups()
	fmt.Println(path)
	return nil
}
