// Package docgen drives an LLM completion service to produce a
// structured documentation bundle from repository context.
//
// Three interchangeable strategies sit behind one interface: a
// streaming Anthropic API call, a local CLI subprocess, and a
// deterministic fixture for testing. Strategy selection is a pure
// function of configuration. The runner copes with truncated output by
// salvaging partial pages and issuing continuation calls that list the
// slugs already completed.
package docgen
