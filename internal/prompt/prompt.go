package prompt

import (
	"fmt"
	"strings"

	"clauselens/internal/models"
)

// profile holds the reader-perspective strings substituted into the
// analysis prompt for one document type.
type profile struct {
	persona        string
	focus          string
	summaryPersona string
}

var profiles = map[models.DocumentType]profile{
	models.RentalAgreement: {
		persona:        "a tenant in Amaravati, Andhra Pradesh",
		focus:          "risks related to deposits, rent hikes, maintenance duties, and termination rules under Indian tenancy law",
		summaryPersona: "a tenant",
	},
	models.BankLoan: {
		persona:        "a borrower taking a personal loan",
		focus:          "hidden fees, floating interest clauses, foreclosure penalties, collateral seizure",
		summaryPersona: "a loan applicant",
	},
	models.EmploymentContract: {
		persona:        "an employee joining a new company",
		focus:          "non-compete clauses, intellectual property ownership, termination conditions, salary and benefits clarity",
		summaryPersona: "a new employee",
	},
	models.CollegeAdmission: {
		persona:        "a student accepting a college admission/scholarship",
		focus:          "refund/withdrawal terms, academic performance requirements, hidden fee structures, penalties",
		summaryPersona: "a student",
	},
	models.StartupFunding: {
		persona:        "a startup founder raising money",
		focus:          "equity dilution, liquidation preference, voting rights, investor control terms",
		summaryPersona: "a founder",
	},
	models.InsurancePolicy: {
		persona:        "a policyholder",
		focus:          "coverage limits, exclusions, claim procedures, premium obligations",
		summaryPersona: "a policyholder",
	},
	models.TermsOfService: {
		persona:        "an internet user",
		focus:          "data privacy, content ownership, liability disclaimers, account suspension rules",
		summaryPersona: "a user",
	},
}

var defaultProfile = profile{
	persona:        "a general reader",
	focus:          "general legal and financial risks",
	summaryPersona: "a general user",
}

// Profile returns the persona/focus strings for a document type, falling
// back to the generic profile for unknown types.
func lookup(docType models.DocumentType) profile {
	if p, ok := profiles[docType]; ok {
		return p
	}
	return defaultProfile
}

// Analysis builds the full instruction string for one analysis run. The
// document text is embedded verbatim between explicit delimiters so the
// model can distinguish instructions from content; it is never truncated or
// transformed, empty input included.
func Analysis(docType models.DocumentType, docText string) string {
	p := lookup(docType)

	var b strings.Builder
	fmt.Fprintf(&b, "You are an AI Legal Assistant specializing in Indian law and common contract practices.\n")
	fmt.Fprintf(&b, "The user is %s reviewing a %s.\n", p.persona, docType)
	fmt.Fprintf(&b, "First check that the document is coherent and matches the stated type, then analyze the document text from their perspective, focusing on %s.\n\n", p.focus)

	b.WriteString("Output requirements:\n")
	b.WriteString("- Plain language only (avoid legal jargon unless quoting).\n")
	b.WriteString("- Always directly quote risky clauses from the document.\n")
	b.WriteString("- Give short, clear explanations of risks, like advice to a layperson.\n")
	b.WriteString("- Classify risks as:\n")
	b.WriteString("  - high = serious risk, could harm rights or cause major loss.\n")
	b.WriteString("  - attention = not immediately dangerous, but needs awareness or clarity.\n\n")

	b.WriteString("Respond with JSON following this exact schema:\n")
	b.WriteString("{\n")
	fmt.Fprintf(&b, "  \"summaries\": { \"summary\": \"One-sentence summary for %s.\" },\n", p.summaryPersona)
	b.WriteString("  \"risks\": [\n")
	b.WriteString("    {\n")
	b.WriteString("      \"level\": \"high\" | \"attention\",\n")
	b.WriteString("      \"clause\": \"Exact risky clause from the document\",\n")
	b.WriteString("      \"explanation\": \"Simple explanation of why it matters\"\n")
	b.WriteString("    }\n")
	b.WriteString("  ],\n")
	b.WriteString("  \"checklist\": [\n")
	b.WriteString("    \"Action item 1 for the user\",\n")
	b.WriteString("    \"Action item 2 (practical next step)\"\n")
	b.WriteString("  ]\n")
	b.WriteString("}\n\n")

	b.WriteString("Document to analyze:\n---\n")
	b.WriteString(docText)
	b.WriteString("\n---\n")

	return b.String()
}

// Chat builds the instruction for an ad hoc question against an already
// loaded document. The answer must come only from the provided context and
// be written in the requested language.
func Chat(question, docText, language string) string {
	var b strings.Builder
	b.WriteString("You are an AI legal advisor. A user has provided a legal document and is asking a question. ")
	b.WriteString("Answer based only on the document context. ")
	b.WriteString("If the answer is not in the document, say so. ")
	fmt.Fprintf(&b, "Always respond in %s.\n\n", language)
	b.WriteString("DOCUMENT CONTEXT:\n---\n")
	b.WriteString(docText)
	b.WriteString("\n---\n\n")
	fmt.Fprintf(&b, "USER QUESTION: %q\n", question)
	return b.String()
}
