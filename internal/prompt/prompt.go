package prompt

// Kind enumerates the supported assistant operations.
type Kind string

const (
	KindGenerateCode  Kind = "generate"
	KindAnalyzeCode   Kind = "analyze"
	KindSecurityCheck Kind = "security"
	KindGenerateTests Kind = "tests"
)

// Format tells the presentation layer how to render a result.
type Format string

const (
	FormatCode     Format = "code"
	FormatMarkdown Format = "markdown"
)

// Operation describes one kind the way the UI presents it.
type Operation struct {
	Kind    Kind   `json:"kind"`
	Label   string `json:"label"`
	Heading string `json:"heading,omitempty"`
	Format  Format `json:"format"`
	// EmptyInput is the warning shown when the user submits nothing.
	EmptyInput string `json:"empty_input"`
}

var operations = []Operation{
	{Kind: KindGenerateCode, Label: "Generate Code", Format: FormatCode, EmptyInput: "Please enter a prompt."},
	{Kind: KindAnalyzeCode, Label: "Code Analysis", Heading: "Analysis Results", Format: FormatMarkdown, EmptyInput: "Please enter code to analyze."},
	{Kind: KindSecurityCheck, Label: "Security Check", Heading: "Security Analysis", Format: FormatMarkdown, EmptyInput: "Please enter code to check."},
	{Kind: KindGenerateTests, Label: "Generate Tests", Heading: "Generated Tests", Format: FormatCode, EmptyInput: "Please enter code for test generation."},
}

// Operations returns every supported operation in display order.
func Operations() []Operation {
	out := make([]Operation, len(operations))
	copy(out, operations)
	return out
}

// Lookup returns the operation for a kind.
func Lookup(kind Kind) (Operation, bool) {
	for _, op := range operations {
		if op.Kind == kind {
			return op, true
		}
	}
	return Operation{}, false
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	_, ok := Lookup(k)
	return ok
}

// Templates maps each kind to the prefix placed in front of the user text.
type Templates map[Kind]string

// Chat is the template set used against chat-completions backends.
var Chat = Templates{
	KindGenerateCode:  "Generate code for the following request. Provide only the code without explanations:\n\n",
	KindAnalyzeCode:   "Analyze the following code and suggest improvements. Be specific and detailed:\n\n",
	KindSecurityCheck: "Perform a security analysis on the following code. Identify potential security issues and suggest fixes:\n\n",
	KindGenerateTests: "Generate comprehensive unit tests for the following code. Include test cases for edge cases:\n\n",
}

// Local is the template set used against a local inference server.
var Local = Templates{
	KindGenerateCode:  "Generate code for: ",
	KindAnalyzeCode:   Chat[KindAnalyzeCode],
	KindSecurityCheck: Chat[KindSecurityCheck],
	KindGenerateTests: Chat[KindGenerateTests],
}

// Build wraps text in the template for kind. The text is inserted as is.
// A kind without a template yields the text unchanged.
func (t Templates) Build(kind Kind, text string) string {
	return t[kind] + text
}

// Build uses the Chat template set.
func Build(kind Kind, text string) string {
	return Chat.Build(kind, text)
}
