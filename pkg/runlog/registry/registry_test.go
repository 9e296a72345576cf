package registry_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/echolab/echotext/pkg/runlog/registry"
)

var _ = Describe("Registry", func() {
	var reg *registry.Registry

	BeforeEach(func() {
		var err error
		reg, err = registry.New(":memory:", zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(reg.Close()).To(Succeed())
	})

	Describe("New", func() {
		It("requires a database path", func() {
			_, err := registry.New("", zap.NewNop())
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("NewRunID", func() {
		It("returns unique non-empty identifiers", func() {
			a := registry.NewRunID()
			b := registry.NewRunID()
			Expect(a).NotTo(BeEmpty())
			Expect(a).NotTo(Equal(b))
		})
	})

	Describe("Create", func() {
		It("creates a running record", func() {
			run, err := reg.Create(context.Background(), "run-1", "cluster", "/tmp/runs/run-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(run.ID).To(Equal("run-1"))
			Expect(run.Kind).To(Equal("cluster"))
			Expect(run.Status).To(Equal(registry.StatusRunning))
			Expect(run.CreatedAt).NotTo(BeZero())
		})

		It("rejects duplicate run IDs", func() {
			_, err := reg.Create(context.Background(), "run-1", "cluster", "")
			Expect(err).NotTo(HaveOccurred())

			_, err = reg.Create(context.Background(), "run-1", "embed", "")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Complete", func() {
		It("marks a run as completed", func() {
			_, err := reg.Create(context.Background(), "run-1", "cluster", "")
			Expect(err).NotTo(HaveOccurred())

			Expect(reg.Complete(context.Background(), "run-1")).To(Succeed())

			run, err := reg.Get(context.Background(), "run-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(run.Status).To(Equal(registry.StatusCompleted))
			Expect(run.CompletedAt).NotTo(BeZero())
			Expect(run.Error).To(BeEmpty())
		})

		It("errors for an unknown run", func() {
			err := reg.Complete(context.Background(), "nonexistent")
			Expect(errors.Is(err, registry.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("Fail", func() {
		It("marks a run as failed with the error message", func() {
			_, err := reg.Create(context.Background(), "run-1", "embed", "")
			Expect(err).NotTo(HaveOccurred())

			Expect(reg.Fail(context.Background(), "run-1", errors.New("corpus missing"))).To(Succeed())

			run, err := reg.Get(context.Background(), "run-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(run.Status).To(Equal(registry.StatusFailed))
			Expect(run.Error).To(Equal("corpus missing"))
		})
	})

	Describe("Get", func() {
		It("returns ErrNotFound for unknown runs", func() {
			_, err := reg.Get(context.Background(), "nonexistent")
			Expect(errors.Is(err, registry.ErrNotFound)).To(BeTrue())
		})

		It("returns the stored artifact directory", func() {
			_, err := reg.Create(context.Background(), "run-1", "cluster", "/tmp/runs/run-1")
			Expect(err).NotTo(HaveOccurred())

			run, err := reg.Get(context.Background(), "run-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(run.ArtifactDir).To(Equal("/tmp/runs/run-1"))
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			for _, id := range []string{"run-1", "run-2", "run-3"} {
				_, err := reg.Create(context.Background(), id, "cluster", "")
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("returns all runs without a limit", func() {
			runs, err := reg.List(context.Background(), 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(runs).To(HaveLen(3))
		})

		It("respects the limit", func() {
			runs, err := reg.List(context.Background(), 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(runs).To(HaveLen(2))
		})

		It("returns an empty list for a fresh registry", func() {
			fresh, err := registry.New(":memory:", zap.NewNop())
			Expect(err).NotTo(HaveOccurred())
			defer fresh.Close()

			runs, err := fresh.List(context.Background(), 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(runs).To(BeEmpty())
		})
	})
})
