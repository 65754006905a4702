package prompt

// builtinTemplates maps template filename to content. These are deliberately
// spare scaffolds; real deployments override them per project.
var builtinTemplates = map[string]string{
	"generate.md": generateTemplate,
	"retry.md":    retryTemplate,
}

const generateTemplate = `# Generate: {{target_name}}

## Phase
{{phase_id}}: {{phase_description}}

## Pipeline
{{pipeline_name}} (session {{session_id}})

{{#if prior_outputs}}
## Prior Phase Outputs
{{prior_outputs}}
{{/if}}

{{#if context}}
## Context
{{context}}
{{/if}}

## Instructions
Produce the complete source text for {{target_name}}. Return only the file
content, inside a single fenced code block.
`

const retryTemplate = `# Retry: {{target_name}}

## Phase
{{phase_id}}: {{phase_description}}

The previous attempt failed:

{{previous_error}}

{{#if prior_outputs}}
## Prior Phase Outputs
{{prior_outputs}}
{{/if}}

## Instructions
Produce a corrected, complete source text for {{target_name}}. Return only the
file content, inside a single fenced code block.
`
