package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	models "sitecanvas/internal/domain/models/site"
	siteSvc "sitecanvas/internal/domain/services/site"
	serviceSite "sitecanvas/internal/service/site"
)

var (
	backupName       string
	includePublished bool
	includeDraft     bool
	exportFormat     string
	outputPath       string
	importType       string

	backupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Create, inspect and restore layout backups",
	}
	backupCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Snapshot every section",
		Args:  cobra.NoArgs,
		RunE:  runBackupCreate,
	}
	backupListCmd = &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE:  runBackupList,
	}
	backupExportCmd = &cobra.Command{
		Use:   "export [backup id]",
		Short: "Write a backup as portable JSON or a text summary",
		Args:  cobra.ExactArgs(1),
		RunE:  runBackupExport,
	}
	backupImportCmd = &cobra.Command{
		Use:   "import [file]",
		Short: "Store a backup from an export document or a raw snapshot array",
		Args:  cobra.ExactArgs(1),
		RunE:  runBackupImport,
	}
	backupRestoreCmd = &cobra.Command{
		Use:   "restore [backup id]",
		Short: "Write every captured section back as a draft",
		Args:  cobra.ExactArgs(1),
		RunE:  runBackupRestore,
	}
	backupArchiveCmd = &cobra.Command{
		Use:   "archive [backup id]",
		Short: "Upload a backup export to object storage (needs S3_BUCKET)",
		Args:  cobra.ExactArgs(1),
		RunE:  runBackupArchive,
	}
	backupDeleteCmd = &cobra.Command{
		Use:   "delete [backup id]",
		Short: "Delete a backup",
		Args:  cobra.ExactArgs(1),
		RunE:  runBackupDelete,
	}
)

func init() {
	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupExportCmd, backupImportCmd,
		backupRestoreCmd, backupArchiveCmd, backupDeleteCmd)

	backupCreateCmd.Flags().StringVar(&backupName, "name", "", "Backup name (default: sitectl-<timestamp>)")
	backupCreateCmd.Flags().BoolVar(&includePublished, "published", true, "Capture published layouts")
	backupCreateCmd.Flags().BoolVar(&includeDraft, "draft", false, "Capture draft layouts")

	backupExportCmd.Flags().StringVar(&exportFormat, "format", string(serviceSite.ExportJSON), "json or summary")
	backupExportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write to a file instead of stdout")

	backupImportCmd.Flags().StringVar(&backupName, "name", "", "Backup name (default: from the document or the file name)")
	backupImportCmd.Flags().StringVar(&importType, "type", "", "published, draft or both (required for a raw snapshot array)")
}

func runBackupCreate(cmd *cobra.Command, args []string) error {
	name := backupName
	if name == "" {
		name = "sitectl-" + time.Now().UTC().Format("20060102-150405")
	}
	backup, err := appFrom(cmd).services.Backups.CreateBackup(cmd.Context(), &siteSvc.CreateBackupRequest{
		Name:             name,
		IncludePublished: includePublished,
		IncludeDraft:     includeDraft,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created backup %s (%s, %d sections)\n", backup.ID, backup.BackupType, len(backup.Snapshot))
	return nil
}

func runBackupList(cmd *cobra.Command, args []string) error {
	backups, err := appFrom(cmd).services.Backups.ListBackups(cmd.Context())
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tCREATED")
	for _, b := range backups {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.ID, b.Name, b.BackupType, b.CreatedAt.UTC().Format(time.RFC3339))
	}
	return w.Flush()
}

func runBackupExport(cmd *cobra.Command, args []string) error {
	backup, err := appFrom(cmd).services.Backups.GetBackup(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	body, _, err := serviceSite.RenderExport(backup, serviceSite.ExportFormat(exportFormat))
	if err != nil {
		return err
	}
	if outputPath == "" {
		_, err = cmd.OutOrStdout().Write(body)
		return err
	}
	if err := os.WriteFile(outputPath, body, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", outputPath)
	return nil
}

// importRequest accepts either an export document or a bare snapshot array
func importRequest(path string, data []byte) (*siteSvc.ImportBackupRequest, error) {
	req := &siteSvc.ImportBackupRequest{Name: backupName, BackupType: models.BackupType(importType)}

	if trimmed := strings.TrimSpace(string(data)); strings.HasPrefix(trimmed, "{") {
		var doc struct {
			Name       string            `json:"name"`
			BackupType models.BackupType `json:"backup_type"`
			Snapshot   json.RawMessage   `json:"snapshot_json"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		req.Snapshot = doc.Snapshot
		if req.Name == "" {
			req.Name = doc.Name
		}
		if req.BackupType == "" {
			req.BackupType = doc.BackupType
		}
	} else {
		req.Snapshot = data
	}

	if req.Name == "" {
		req.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return req, nil
}

func runBackupImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	req, err := importRequest(args[0], data)
	if err != nil {
		return err
	}
	backup, err := appFrom(cmd).services.Backups.ImportBackup(cmd.Context(), req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported backup %s (%s, %d sections)\n", backup.ID, backup.BackupType, len(backup.Snapshot))
	return nil
}

func runBackupRestore(cmd *cobra.Command, args []string) error {
	result, err := appFrom(cmd).services.Backups.Restore(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func runBackupArchive(cmd *cobra.Command, args []string) error {
	result, err := appFrom(cmd).services.Backups.ArchiveBackup(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "archived to s3://%s/%s\n", result.Bucket, result.Key)
	return nil
}

func runBackupDelete(cmd *cobra.Command, args []string) error {
	if err := appFrom(cmd).services.Backups.DeleteBackup(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted backup %s\n", args[0])
	return nil
}
