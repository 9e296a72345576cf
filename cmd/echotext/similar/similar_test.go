package similarcmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	similarcmder "github.com/echolab/echotext/cmd/echotext/similar"
)

var _ = Describe("NewSimilarCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := similarcmder.NewSimilarCmd()
		Expect(cmd.Use).To(Equal("similar <run-id> <doc-index>"))
	})

	It("defaults --top to 5 matches", func() {
		cmd := similarcmder.NewSimilarCmd()
		Expect(cmd.Flags().Lookup("top").DefValue).To(Equal("5"))
	})

	It("requires exactly two arguments", func() {
		cmd := similarcmder.NewSimilarCmd()
		cmd.SetArgs([]string{"some-run-id"})
		err := cmd.Execute()
		Expect(err).To(HaveOccurred())
	})

	It("rejects a non-numeric document index", func() {
		cmd := similarcmder.NewSimilarCmd()
		cmd.Flags().Bool("debug", false, "")
		cmd.Flags().String("config-dir", "", "")
		cmd.SetArgs([]string{"some-run-id", "first"})
		err := cmd.Execute()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("invalid document index"))
	})
})
