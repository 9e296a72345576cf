package echotextcmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	echotextcmder "github.com/echolab/echotext/cmd/echotext"
)

var _ = Describe("NewEchotextCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := echotextcmder.NewEchotextCmd()
		Expect(cmd.Use).To(Equal("echotext"))
	})

	It("registers all subcommands", func() {
		cmd := echotextcmder.NewEchotextCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("cluster", "embed", "similar", "runs", "config", "serve"))
	})

	It("exposes the global debug flag with shorthand", func() {
		cmd := echotextcmder.NewEchotextCmd()
		debug := cmd.PersistentFlags().Lookup("debug")
		Expect(debug).NotTo(BeNil())
		Expect(debug.Shorthand).To(Equal("d"))
	})

	It("exposes the global config-dir flag", func() {
		cmd := echotextcmder.NewEchotextCmd()
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})
})
