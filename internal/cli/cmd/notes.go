package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/learntrack/backend/internal/cli/api"
	"github.com/learntrack/backend/internal/cli/output"
	"github.com/learntrack/backend/internal/models"
	"github.com/spf13/cobra"
)

var (
	flagNoteSection     string
	flagNoteTitle       string
	flagNoteDescription string
	flagNoteURL         string
	flagNoteForce       bool
	flagNoteOutput      string
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Browse and manage study notes",
}

var notesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List notes, newest first",
	Long: `List notes of one section. Students default to their own section.

  learntrack notes ls
  learntrack notes ls --section mechanical`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		params := url.Values{}
		if flagNoteSection != "" {
			params.Set("section", flagNoteSection)
		}

		var resp api.Response[[]api.Note]
		if err := apiClient.Get("/notes", params, &resp); err != nil {
			return describeAPIError("listing notes", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.NoteTable(resp.Data)
		return nil
	},
}

var notesShowCmd = &cobra.Command{
	Use:   "show <note-id>",
	Short: "Show a single note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		var resp api.Response[api.Note]
		if err := apiClient.Get("/notes/"+url.PathEscape(args[0]), nil, &resp); err != nil {
			return describeAPIError("fetching note", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.NoteDetail(resp.Data)
		return nil
	},
}

var notesAddLinkCmd = &cobra.Command{
	Use:   "add-link",
	Short: "Publish an external link as a note (admin)",
	Long: `Publish a link note into a section.

  learntrack notes add-link --title "Ohm's law" --url https://example.com/ohm --section electrical`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		if err := requireSection(); err != nil {
			return err
		}

		body := map[string]string{
			"title":       flagNoteTitle,
			"description": flagNoteDescription,
			"section":     flagNoteSection,
			"url":         flagNoteURL,
		}
		var resp api.Response[api.Note]
		if err := apiClient.Post("/notes/link", body, &resp); err != nil {
			return describeAPIError("publishing link", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.Printf("Published %q (%s)\n", resp.Data.Title, resp.Data.ID)
		return nil
	},
}

var notesUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a document as a note (admin)",
	Long: `Upload a local document into a section. The title defaults to the file name.

  learntrack notes upload motors.pdf --section mechanical`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		if err := requireSection(); err != nil {
			return err
		}

		title := flagNoteTitle
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}

		fields := map[string]string{
			"title":       title,
			"description": flagNoteDescription,
			"section":     flagNoteSection,
		}
		var resp api.Response[api.Note]
		if err := apiClient.Upload("/notes/upload", "file", args[0], fields, &resp); err != nil {
			return describeAPIError("uploading document", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.Printf("Uploaded %q (%s)\n", resp.Data.Title, resp.Data.ID)
		return nil
	},
}

var notesRmCmd = &cobra.Command{
	Use:   "rm <note-id>",
	Short: "Delete a note and every progress record on it (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		noteID := url.PathEscape(args[0])

		var info api.Response[api.Note]
		if err := apiClient.Get("/notes/"+noteID, nil, &info); err != nil {
			return describeAPIError("fetching note", err)
		}

		if !flagNoteForce {
			output.Printf("Delete %q and all progress recorded on it? This cannot be undone. [y/N] ", info.Data.Title)
			answer, _ := bufio.NewReader(stdin).ReadString('\n')
			answer = strings.TrimSpace(strings.ToLower(answer))
			if answer != "y" && answer != "yes" {
				output.Println("Cancelled.")
				return nil
			}
		}

		var resp api.Response[api.DeleteResult]
		if err := apiClient.Delete("/notes/"+noteID, &resp); err != nil {
			return describeAPIError("deleting note", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.Printf("Deleted %q, removed %d progress record(s)\n", info.Data.Title, resp.Data.ProgressRemoved)
		if resp.Warning != "" {
			output.Printf("Warning: %s\n", resp.Warning)
		}
		return nil
	},
}

var notesDownloadCmd = &cobra.Command{
	Use:   "download <note-id>",
	Short: "Download a document note, or print the address of a link note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		noteID := url.PathEscape(args[0])

		var info api.Response[api.Note]
		if err := apiClient.Get("/notes/"+noteID, nil, &info); err != nil {
			return describeAPIError("fetching note", err)
		}

		var link api.Response[api.URLResponse]
		if err := apiClient.Get("/notes/"+noteID+"/download", nil, &link); err != nil {
			return describeAPIError("resolving download", err)
		}

		if info.Data.Kind != models.NoteKindDocument {
			output.Println(link.Data.URL)
			return nil
		}

		dest := flagNoteOutput
		if dest == "" && info.Data.FileName != nil {
			dest = filepath.Base(*info.Data.FileName)
		}
		if dest == "" {
			return errors.New("document has no file name: pass --output")
		}

		if err := apiClient.DownloadToFile(link.Data.URL, dest); err != nil {
			return fmt.Errorf("downloading: %w", err)
		}
		output.Printf("Saved %s\n", dest)
		return nil
	},
}

var sectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "List the known sections",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		var resp api.Response[[]api.SectionInfo]
		if err := apiClient.Get("/sections", nil, &resp); err != nil {
			return describeAPIError("listing sections", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		for _, s := range resp.Data {
			output.Printf("%s\t%s\n", s.ID, s.Name)
		}
		return nil
	},
}

func requireSection() error {
	if flagNoteSection == "" {
		return errors.New("--section is required")
	}
	return nil
}

func init() {
	notesLsCmd.Flags().StringVar(&flagNoteSection, "section", "", "Section to list (admins see every section when omitted)")

	for _, c := range []*cobra.Command{notesAddLinkCmd, notesUploadCmd} {
		c.Flags().StringVar(&flagNoteSection, "section", "", "Target section")
		c.Flags().StringVar(&flagNoteTitle, "title", "", "Note title")
		c.Flags().StringVar(&flagNoteDescription, "description", "", "Optional description")
	}
	notesAddLinkCmd.Flags().StringVar(&flagNoteURL, "url", "", "Link address (http or https)")

	notesRmCmd.Flags().BoolVarP(&flagNoteForce, "force", "f", false, "Skip confirmation prompt")
	notesDownloadCmd.Flags().StringVarP(&flagNoteOutput, "output", "o", "", "Destination file (default: the stored file name)")

	notesCmd.AddCommand(notesLsCmd, notesShowCmd, notesAddLinkCmd, notesUploadCmd, notesRmCmd, notesDownloadCmd)
	rootCmd.AddCommand(notesCmd, sectionsCmd)
}
