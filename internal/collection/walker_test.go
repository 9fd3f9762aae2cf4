package collection_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/apimorph/pmconv/internal/collection"
	"github.com/apimorph/pmconv/internal/domain"
)

// visited records one dispatched fragment for assertions.
type visited struct {
	Text  string
	Phase domain.Phase
}

func script(exec any) map[string]any {
	return map[string]any{"exec": exec}
}

func event(listen string, exec any) map[string]any {
	return map[string]any{"listen": listen, "script": script(exec)}
}

var _ = Describe("WalkScripts", func() {
	var (
		seen  []visited
		visit collection.VisitFunc
	)

	BeforeEach(func() {
		seen = nil
		visit = func(_ context.Context, frag domain.Fragment) []string {
			seen = append(seen, visited{Text: frag.Text(), Phase: frag.Phase})
			return []string{"converted"}
		}
	})

	It("should visit every script reachable through deep item nesting exactly once", func() {
		doc := &collection.Document{
			Name: "deep.json",
			Root: map[string]any{
				"info": map[string]any{"name": "deep"},
				"item": []any{
					map[string]any{
						"name": "folder",
						"item": []any{
							map[string]any{
								"name": "nested folder",
								"item": []any{
									map[string]any{
										"name":  "request",
										"event": []any{event("test", []any{"tests[\"a\"] = 1;"})},
									},
								},
							},
						},
					},
					map[string]any{
						"name":  "top request",
						"event": []any{event("test", []any{"tests[\"b\"] = 2;"})},
					},
				},
			},
		}

		collection.WalkScripts(context.Background(), doc, visit)

		Expect(seen).To(HaveLen(2))
		texts := []string{seen[0].Text, seen[1].Text}
		Expect(texts).To(ConsistOf("tests[\"a\"] = 1;", "tests[\"b\"] = 2;"))
	})

	It("should propagate a declared pre-request phase to the event's script", func() {
		doc := &collection.Document{
			Name: "phases.json",
			Root: map[string]any{
				"event": []any{
					event("prerequest", []any{"pm.environment.set(\"a\", 1);"}),
					event("test", []any{"tests[\"ok\"] = 1;"}),
				},
			},
		}

		collection.WalkScripts(context.Background(), doc, visit)

		Expect(seen).To(HaveLen(2))
		Expect(seen[0].Phase).To(Equal(domain.PhasePreRequest))
		Expect(seen[1].Phase).To(Equal(domain.PhaseTest))
	})

	It("should reset phase inheritance at each item boundary", func() {
		doc := &collection.Document{
			Name: "reset.json",
			Root: map[string]any{
				"event": []any{
					map[string]any{
						"listen": "prerequest",
						"script": script([]any{"setup();"}),
					},
				},
				"item": []any{
					map[string]any{
						"name":  "child",
						"event": []any{map[string]any{"script": script([]any{"child();"})}},
					},
				},
			},
		}

		collection.WalkScripts(context.Background(), doc, visit)

		Expect(seen).To(HaveLen(2))
		Expect(seen[0].Phase).To(Equal(domain.PhasePreRequest))
		// The nested item's event declares no phase, so its script
		// defaults to test rather than inheriting prerequest.
		Expect(seen[1].Phase).To(Equal(domain.PhaseTest))
	})

	It("should handle a single-string exec field", func() {
		doc := &collection.Document{
			Name: "string.json",
			Root: map[string]any{
				"event": []any{event("test", "tests[\"x\"] = responseCode.code === 200;")},
			},
		}

		collection.WalkScripts(context.Background(), doc, visit)

		Expect(seen).To(HaveLen(1))
		Expect(seen[0].Text).To(Equal("tests[\"x\"] = responseCode.code === 200;"))
	})

	It("should write replacement lines back as an ordered sequence", func() {
		sc := script([]any{"old();"})
		doc := &collection.Document{
			Name: "write.json",
			Root: map[string]any{
				"event": []any{map[string]any{"listen": "test", "script": sc}},
			},
		}

		collection.WalkScripts(context.Background(), doc, visit)

		Expect(sc["exec"]).To(Equal([]any{"converted"}))
	})

	It("should normalize an empty replacement to an empty sequence", func() {
		sc := script([]any{"  "})
		doc := &collection.Document{
			Name: "empty.json",
			Root: map[string]any{"event": []any{map[string]any{"script": sc}}},
		}

		collection.WalkScripts(context.Background(), doc, func(context.Context, domain.Fragment) []string {
			return []string{}
		})

		Expect(sc["exec"]).To(Equal([]any{}))
	})

	It("should leave non-script fields untouched", func() {
		doc := &collection.Document{
			Name: "untouched.json",
			Root: map[string]any{
				"info": map[string]any{"name": "u", "schema": "x"},
				"item": []any{
					map[string]any{
						"name":    "request",
						"request": map[string]any{"method": "GET", "url": "https://example.test"},
						"event":   []any{event("test", []any{"t();"})},
					},
				},
			},
		}

		collection.WalkScripts(context.Background(), doc, visit)

		Expect(doc.Root["info"]).To(Equal(map[string]any{"name": "u", "schema": "x"}))
		item := doc.Root["item"].([]any)[0].(map[string]any)
		Expect(item["request"]).To(Equal(map[string]any{"method": "GET", "url": "https://example.test"}))
	})
})
