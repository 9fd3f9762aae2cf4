package fragment_test

import (
	"context"
	"errors"
	"io"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/apimorph/pmconv/internal/config"
	"github.com/apimorph/pmconv/internal/domain"
	"github.com/apimorph/pmconv/internal/fragment"
)

// scriptedClient is a test double whose responses are driven by
// per-operation functions. Call counts are recorded for assertions.
type scriptedClient struct {
	convert func(text string, phase domain.Phase) (string, error)
	cont    func(partial, original string) (string, error)
	fix     func(text, original string) (string, error)

	convertCalls int
	contCalls    int
	fixCalls     int
}

func (c *scriptedClient) Convert(_ context.Context, text string, phase domain.Phase) (string, error) {
	c.convertCalls++
	if c.convert == nil {
		return text, nil
	}
	return c.convert(text, phase)
}

func (c *scriptedClient) ContinueTruncated(_ context.Context, partial, original string, _ domain.Phase, _ []string) (string, error) {
	c.contCalls++
	if c.cont == nil {
		return "", nil
	}
	return c.cont(partial, original)
}

func (c *scriptedClient) FixSyntax(_ context.Context, text, original string) (string, error) {
	c.fixCalls++
	if c.fix == nil {
		return text, nil
	}
	return c.fix(text, original)
}

func (c *scriptedClient) RepairDocument(_ context.Context, documentText string) (string, error) {
	return documentText, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

var _ = Describe("Converter", func() {
	var (
		client *scriptedClient
		cfg    *config.Convert
		conv   *fragment.Converter
		ctx    context.Context
	)

	BeforeEach(func() {
		client = &scriptedClient{}
		cfg = &config.Convert{MaxAttempts: 3, MaxFragmentBytes: 64 * 1024}
		ctx = context.Background()
	})

	JustBeforeEach(func() {
		conv = fragment.NewConverter(client, cfg, quietLogger())
	})

	It("should short-circuit all-blank fragments without any service call", func() {
		lines, report := conv.ConvertFragment(ctx, domain.Fragment{Lines: []string{"", "   ", "\t"}})

		Expect(lines).To(BeEmpty())
		Expect(lines).ToNot(BeNil())
		Expect(report.Attempts).To(Equal(0))
		Expect(client.convertCalls).To(Equal(0))
	})

	It("should accept a complete first conversion after one attempt", func() {
		client.convert = func(string, domain.Phase) (string, error) {
			return "```javascript\npm.test(\"ok\", function () {\n  pm.expect(pm.response.code).to.eql(200);\n});\n```", nil
		}

		frag := domain.Fragment{
			Lines: []string{`tests["ok"] = responseCode.code === 200;`},
			Phase: domain.PhaseTest,
		}
		lines, report := conv.ConvertFragment(ctx, frag)

		Expect(report.Attempts).To(Equal(1))
		Expect(report.Degraded).To(BeFalse())
		Expect(report.Defects).To(BeEmpty())
		Expect(client.contCalls).To(Equal(0))
		Expect(strings.Join(lines, "\n")).To(ContainSubstring(`pm.test("ok"`))
	})

	It("should accumulate continuation rounds onto the buffer", func() {
		client.convert = func(string, domain.Phase) (string, error) {
			return `pm.test("ok", function () {`, nil
		}
		client.cont = func(partial, original string) (string, error) {
			Expect(partial).To(ContainSubstring(`pm.test("ok"`))
			Expect(original).To(ContainSubstring("tests["))
			return `pm.expect(1).to.eql(1); });`, nil
		}

		frag := domain.Fragment{Lines: []string{`tests["ok"] = 1;`}, Phase: domain.PhaseTest}
		lines, report := conv.ConvertFragment(ctx, frag)

		Expect(report.Attempts).To(Equal(2))
		Expect(report.Degraded).To(BeFalse())
		joined := strings.Join(lines, "\n")
		Expect(joined).To(ContainSubstring(`pm.test("ok", function () {`))
		Expect(joined).To(ContainSubstring("pm.expect(1).to.eql(1); });"))
	})

	It("should never exceed the attempt cap before the last-resort fix", func() {
		client.convert = func(string, domain.Phase) (string, error) {
			return "pm.expect(", nil
		}
		client.cont = func(string, string) (string, error) {
			return "", nil // never makes progress
		}
		client.fix = func(string, string) (string, error) {
			return "pm.expect(1).to.eql(1);", nil
		}

		frag := domain.Fragment{Lines: []string{"x"}, Phase: domain.PhaseTest}
		lines, report := conv.ConvertFragment(ctx, frag)

		Expect(report.Attempts).To(Equal(cfg.MaxAttempts))
		Expect(client.contCalls).To(Equal(cfg.MaxAttempts - 1))
		Expect(client.fixCalls).To(Equal(1))
		Expect(report.Degraded).To(BeTrue())
		Expect(lines).To(Equal([]string{"pm.expect(1).to.eql(1);"}))
	})

	It("should count a failed service call as one consumed attempt", func() {
		client.convert = func(string, domain.Phase) (string, error) {
			return "", errors.New("boom")
		}
		client.cont = func(string, string) (string, error) {
			return "", errors.New("still down")
		}

		frag := domain.Fragment{Lines: []string{"x"}, Phase: domain.PhaseTest}
		lines, report := conv.ConvertFragment(ctx, frag)

		Expect(report.Attempts).To(Equal(cfg.MaxAttempts))
		Expect(report.Emptied).To(BeTrue())
		Expect(lines).To(BeEmpty())
		// Nothing to fix when no text was ever produced.
		Expect(client.fixCalls).To(Equal(0))
	})

	It("should stop repairing once the accumulated buffer hits the size cap", func() {
		cfg.MaxFragmentBytes = 1024
		conv = fragment.NewConverter(client, cfg, quietLogger())
		client.convert = func(string, domain.Phase) (string, error) {
			return "foo(" + strings.Repeat("a", 2048), nil
		}
		client.fix = func(string, string) (string, error) {
			return "foo();", nil
		}

		frag := domain.Fragment{Lines: []string{"x"}, Phase: domain.PhaseTest}
		lines, report := conv.ConvertFragment(ctx, frag)

		Expect(client.contCalls).To(Equal(0))
		Expect(report.Degraded).To(BeTrue())
		Expect(lines).To(Equal([]string{"foo();"}))
	})

	It("should keep the degraded buffer when the syntax fix call fails", func() {
		client.convert = func(string, domain.Phase) (string, error) {
			return "pm.expect(", nil
		}
		client.fix = func(string, string) (string, error) {
			return "", errors.New("unavailable")
		}

		frag := domain.Fragment{Lines: []string{"x"}, Phase: domain.PhaseTest}
		lines, report := conv.ConvertFragment(ctx, frag)

		Expect(report.Degraded).To(BeTrue())
		Expect(report.Defects).ToNot(BeEmpty())
		Expect(lines).To(Equal([]string{"pm.expect("}))
	})
})
