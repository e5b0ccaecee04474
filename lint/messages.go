package lint

import "fmt"

// Message catalog, one function per diagnostic kind.

func msgRedundant(selector, trigger, value string) string {
	return fmt.Sprintf(`Unnecessary "isolation: isolate" in %q: stacking context is already created by "%s: %s"`, selector, trigger, value)
}

func msgIneffectiveBlend(selector, value string) string {
	return fmt.Sprintf(`"isolation: isolate" in %q has no effect on "background-blend-mode: %s", background layers always blend within the element`, selector, value)
}

func msgSideEffect(property, value string) string {
	return fmt.Sprintf(`Prefer "isolation: isolate" over "%s: %s" to create a stacking context`, property, value)
}

func msgZIndexRange(value int64, limit int) string {
	return fmt.Sprintf(`Expected z-index to be at most %d, got %d; scope stacking with "isolation: isolate" instead of raising z-index`, limit, value)
}

func msgHighDescendants(selector string, estimate, limit int) string {
	return fmt.Sprintf(`Stacking context on %q may affect about %d descendants (limit %d), use a more specific selector`, selector, estimate, limit)
}

func msgMissingIsolation(selector string) string {
	return fmt.Sprintf(`Expected "isolation: isolate" in %q where z-index is used`, selector)
}

func msgRequiredIsolation(selector, class string) string {
	return fmt.Sprintf(`Expected "isolation: isolate" in %q: class %q requires isolation`, selector, class)
}

func msgInternalError(cause any) string {
	return fmt.Sprintf("internal error: %v", cause)
}
