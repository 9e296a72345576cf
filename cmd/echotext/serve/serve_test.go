package servecmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	servecmder "github.com/echolab/echotext/cmd/echotext/serve"
)

var _ = Describe("NewServeCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Use).To(Equal("serve"))
	})

	It("defaults --listen to the configured API address", func() {
		cmd := servecmder.NewServeCmd()
		listen := cmd.Flags().Lookup("listen")
		Expect(listen).NotTo(BeNil())
		Expect(listen.DefValue).To(Equal(":8089"))
		Expect(listen.Shorthand).To(Equal("l"))
	})

	It("registers the registry database flag", func() {
		cmd := servecmder.NewServeCmd()
		sqlite := cmd.Flags().Lookup("sqlite")
		Expect(sqlite).NotTo(BeNil())
		Expect(sqlite.Shorthand).To(Equal("s"))
	})
})
