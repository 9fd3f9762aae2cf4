package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/apimorph/pmconv/internal/config"
)

var _ = Describe("Config", func() {
	Describe("DefaultConfig", func() {
		It("should validate once an endpoint is set", func() {
			cfg := config.DefaultConfig()
			cfg.Service.URL = "http://localhost:9999/generate"
			Expect(config.Validate(cfg)).To(Succeed())
		})

		It("should default to skipping conformant collections", func() {
			Expect(config.DefaultConfig().SkipConformant()).To(BeTrue())
		})

		It("should keep the retry budget in the expected small range", func() {
			cfg := config.DefaultConfig()
			Expect(cfg.Convert.MaxAttempts).To(BeNumerically(">=", 7))
			Expect(cfg.Convert.MaxAttempts).To(BeNumerically("<=", 8))
		})
	})

	Describe("Load", func() {
		It("should overlay file values onto defaults", func() {
			path := filepath.Join(GinkgoT().TempDir(), "pmconv.yaml")
			content := `
service:
  url: http://svc.example/generate
  model: test-model
convert:
  max_attempts: 8
  skip_conformant: false
logging:
  level: debug
`
			Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())

			cfg, err := config.Load(path)
			Expect(err).ToNot(HaveOccurred())
			Expect(cfg.Service.URL).To(Equal("http://svc.example/generate"))
			Expect(cfg.Service.Model).To(Equal("test-model"))
			Expect(cfg.Convert.MaxAttempts).To(Equal(8))
			Expect(cfg.SkipConformant()).To(BeFalse())
			Expect(cfg.Logging.Level).To(Equal("debug"))
			// untouched sections keep defaults
			Expect(cfg.Schema.URL).To(Equal(config.ModernSchemaURL))
			Expect(cfg.Output.ArchiveName).To(Equal("converted_postman_jsons.zip"))
		})

		It("should fail for a missing file", func() {
			_, err := config.Load(filepath.Join(GinkgoT().TempDir(), "nope.yaml"))
			Expect(err).To(HaveOccurred())
		})

		It("should fail for malformed YAML", func() {
			path := filepath.Join(GinkgoT().TempDir(), "bad.yaml")
			Expect(os.WriteFile(path, []byte("service: ["), 0644)).To(Succeed())

			_, err := config.Load(path)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Validate", func() {
		var cfg *config.Config

		BeforeEach(func() {
			cfg = config.DefaultConfig()
			cfg.Service.URL = "http://localhost/generate"
		})

		It("should require a service endpoint", func() {
			cfg.Service.URL = ""
			err := config.Validate(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("service.url"))
		})

		It("should reject malformed durations", func() {
			cfg.Service.ScriptTimeout = "soon"
			err := config.Validate(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("script_timeout"))
		})

		It("should reject a zero retry budget", func() {
			cfg.Convert.MaxAttempts = 0
			Expect(config.Validate(cfg)).To(HaveOccurred())
		})

		It("should reject unknown logging levels", func() {
			cfg.Logging.Level = "loud"
			Expect(config.Validate(cfg)).To(HaveOccurred())
		})

		It("should reject a non-zip archive name", func() {
			cfg.Output.ArchiveName = "out.tar"
			Expect(config.Validate(cfg)).To(HaveOccurred())
		})
	})

	Describe("ApplyEnv", func() {
		It("should override the endpoint from PMCONV_SERVICE_URL", func() {
			GinkgoT().Setenv("PMCONV_SERVICE_URL", "http://env.example/generate")

			cfg := config.DefaultConfig()
			cfg.Service.URL = "http://file.example/generate"
			config.ApplyEnv(cfg)
			Expect(cfg.Service.URL).To(Equal("http://env.example/generate"))
		})

		It("should fall back to AZURE_URL only when nothing is configured", func() {
			GinkgoT().Setenv("AZURE_URL", "http://legacy.example/generate")

			cfg := config.DefaultConfig()
			config.ApplyEnv(cfg)
			Expect(cfg.Service.URL).To(Equal("http://legacy.example/generate"))

			cfg = config.DefaultConfig()
			cfg.Service.URL = "http://file.example/generate"
			config.ApplyEnv(cfg)
			Expect(cfg.Service.URL).To(Equal("http://file.example/generate"))
		})
	})

	Describe("Duration", func() {
		It("should parse set values and fall back otherwise", func() {
			Expect(config.Duration("90s", time.Minute)).To(Equal(90 * time.Second))
			Expect(config.Duration("", time.Minute)).To(Equal(time.Minute))
		})
	})
})
