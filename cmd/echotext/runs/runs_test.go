package runscmder_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	runscmder "github.com/echolab/echotext/cmd/echotext/runs"
)

var _ = Describe("NewRunsCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := runscmder.NewRunsCmd()
		Expect(cmd.Use).To(Equal("runs"))
	})

	It("has list and show subcommands", func() {
		cmd := runscmder.NewRunsCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("list", "show"))
	})
})

var _ = Describe("Runs command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "echotext-runs-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		err = os.MkdirAll(filepath.Join(tmpDir, ".echotext"), 0o755)
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	Describe("list subcommand", func() {
		It("runs without error on an empty registry", func() {
			cmd := runscmder.NewRunsCmd()
			cmd.PersistentFlags().Bool("debug", false, "")
			cmd.PersistentFlags().String("config-dir", "", "")
			cmd.SetArgs([]string{"list"})
			err := cmd.Execute()
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("show subcommand", func() {
		It("requires exactly one argument", func() {
			cmd := runscmder.NewRunsCmd()
			cmd.SetArgs([]string{"show"})
			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
		})

		It("errors for an unknown run id", func() {
			cmd := runscmder.NewRunsCmd()
			cmd.PersistentFlags().Bool("debug", false, "")
			cmd.PersistentFlags().String("config-dir", "", "")
			cmd.SetArgs([]string{"show", "no-such-run"})
			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("not found"))
		})
	})
})
