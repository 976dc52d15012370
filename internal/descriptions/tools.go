package descriptions

import "sort"

// Tool names exposed over MCP.
const (
	ToolExtractFields    = "form_extract_fields"
	ToolAnnotateSections = "form_annotate_sections"
	ToolValidateFile     = "form_validate_file"
	ToolSearchDirectory  = "form_search_directory"
	ToolServerInfo       = "form_server_info"
)

// Comprehensive tool descriptions with practical examples and use cases

const (
	ExtractFieldsDescription = `Reconstruct the (label, value) fields of a two-column form PDF, page by page.

**When to use:** Need the answers of a fixed-template application or proposal form: labels sit in the left column, free text in the right.

**Why it's useful:** Text runs are tied to the nearest label above them, answers that overflow onto the next page are stitched back onto their field, UI artifacts such as "Edit" buttons are dropped, and ticked checkbox images are turned into the list of selected items.

**Examples:**
• Read a proposal: "Extract the fields of proposal-0042.pdf"
• Check one answer: "What does proposal-0042.pdf say under Elevator pitch?"
• Thematic areas: "Which thematic areas were ticked in proposal-0042.pdf?"

**Common workflows:**
1. Review: form_validate_file → form_extract_fields → read the fields of interest
2. Export: form_extract_fields with write_outputs=true → field table next to the PDF
3. Analysis: form_extract_fields → form_annotate_sections for ontology concepts

**Best practices:** Relative paths resolve inside the configured directory. The output lists fields per page in reading order; a field that continued from an earlier page appears once, on the page where its label is.`

	AnnotateSectionsDescription = `Resolve the narrative sections of a form to canonical ontology concepts.

**When to use:** Need the diseases or conditions a proposal is about, normalized to preferred ontology labels rather than the author's wording.

**Why it's useful:** Each configured section is sent to the annotator service, every match is looked up for its preferred label, spans that do not spell that label are dropped, and configured generic concepts are discarded. Sections are reported individually as resolved, empty, failed or not found, so one failing call never hides the others.

**Examples:**
• Topic tagging: "Which diseases does proposal-0042.pdf address?"
• Portfolio view: "Annotate every proposal and list the concepts of the Market need section"

**Common workflows:**
1. Tagging: form_annotate_sections → store the concept table
2. Triage: form_annotate_sections → inspect failed sections → retry later

**Best practices:** Requires an annotator API key (FORM_FIELDS_API_KEY). Without it every found section is reported as failed.`

	ValidateFileDescription = `Verify that a file is a readable PDF before processing it.

**When to use:** Before extraction, especially for files received from users or other systems.

**Why it's useful:** Catches missing, empty, oversized and corrupted files early with a clear message.

**Examples:**
• Upload verification: "Check that proposal-0042.pdf is valid before extracting it"

**Best practices:** Run this first in automated workflows.`

	SearchDirectoryDescription = `Discover form PDFs in a directory with optional fuzzy name matching.

**When to use:** Need to find which proposals are available, or locate one by part of its name.

**Why it's useful:** Walks the directory tree, skips hidden directories and files that cannot be PDFs, and matches every query word against the file names.

**Examples:**
• List everything: "Which forms are in the inbox?"
• Find one: "Find the proposal about diabetes screening"

**Best practices:** Leave the directory empty to search the configured directory.`

	ServerInfoDescription = `Describe the server, its configuration and the forms available in its directory.

**When to use:** At the start of a session, to learn which tools exist and which files can be processed.

**Why it's useful:** Reports the configured directory, size limit, annotator and output settings along with a short list of available PDFs.

**Best practices:** Call once, then use the tool descriptions it returns to plan the workflow.`
)

// ToolDescriptions maps tool names to their comprehensive descriptions
var ToolDescriptions = map[string]string{
	ToolExtractFields:    ExtractFieldsDescription,
	ToolAnnotateSections: AnnotateSectionsDescription,
	ToolValidateFile:     ValidateFileDescription,
	ToolSearchDirectory:  SearchDirectoryDescription,
	ToolServerInfo:       ServerInfoDescription,
}

// ToolUsage holds the short usage line and parameter summary of each tool.
var ToolUsage = map[string][2]string{
	ToolExtractFields:    {"Extract the fields of a form PDF", "path (required), write_outputs (optional bool)"},
	ToolAnnotateSections: {"Resolve form sections to ontology concepts", "path (required), write_outputs (optional bool)"},
	ToolValidateFile:     {"Check that a file is a readable PDF", "path (required)"},
	ToolSearchDirectory:  {"List form PDFs, optionally filtered by name", "directory (optional), query (optional)"},
	ToolServerInfo:       {"Describe the server and its directory", "none"},
}

// GetToolDescription returns the comprehensive description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the names of all available tools, sorted.
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
