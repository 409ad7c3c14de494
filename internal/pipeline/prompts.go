package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mohammad-safakhou/contentagent/models"
)

const (
	// DefaultPurpose is used when a module has no purpose of its own.
	DefaultPurpose = "Genereer een SEO-vriendelijk artikel"

	// DefaultSummaryPrompt is used when the organization has no summary prompt for the module.
	DefaultSummaryPrompt = `Vat de achtergrondinformatie hieronder samen zodat deze bruikbaar is als context voor een marketingartikel over de onderwerpen in de form data.
Neem alleen feiten, aanbiedingen, data en productnamen op die relevant zijn. Antwoord in JSON met precies één veld: {"information": "<samenvatting>"}`

	noContextFallback = `{"basicInfo":"No context available"}`
)

func formatInstruction(f models.OutputFormat) string {
	return fmt.Sprintf("Belangrijk is dat je ALTIJD in %s format reageerd. Voeg nooit de '''markdown''' of '''emailHTML''' tags toe", f.Normalize())
}

func searchIntentPrompt(now time.Time, fd models.FormData) string {
	return fmt.Sprintf("Generate a prompt for an internet search that searches for current information about the following topic. "+
		"Focus on information that is relevant at this current moment in time! Think of events, dates, etc. Current date: %s %s",
		now.UTC().Format(time.RFC3339), fd.JSON())
}

func storeListPrompt(topicTitle, candidates string, limit int) string {
	return fmt.Sprintf(`-------------   INSTRUCTIONS  -------------
Generate a list of relevant stores for the article content. Try to find %d relevant stores, but if there are less available that are relevant to the content answer with less.

-------------   CONTENT  -------------
The content is: %s

-------------   AVAILABLE STORES  -------------
The set of available stores is: %s

-------------   FORMAT  -------------
Format the response as a JSON object with the following fields:
{
    "stores": [
        {"name of store1": "https://www.store1.nl"},
        {"name of store2": "https://www.store2.nl"}
    ]
}`, limit, topicTitle, candidates)
}

func summaryPrompt(base string, fd models.FormData, background string) string {
	if strings.TrimSpace(base) == "" {
		base = DefaultSummaryPrompt
	}
	return fmt.Sprintf("%s\n----- BEGIN FORM DATA ----- %s ----- END FORM DATA -----\n\n----- BEGIN background information ----- %s ----- END background information -----",
		base, fd.JSON(), background)
}

type draftInput struct {
	Title          string
	FormData       models.FormData
	PromptTemplate string
	OrgPrompt      string
	AccessPrompt   string
	Format         models.OutputFormat
	Context        []models.SummarizedPage
	InternetSearch string
	Purpose        string
}

type contextEntry struct {
	Store   string `json:"store"`
	Summary string `json:"summary"`
	URL     string `json:"url"`
}

// contextJSON renders the successful summaries, or a fallback object when there are none.
func contextJSON(pages []models.SummarizedPage) string {
	entries := make([]contextEntry, 0, len(pages))
	for _, p := range pages {
		if !p.Succeeded() {
			continue
		}
		entries = append(entries, contextEntry{Store: p.Name, Summary: p.Summary, URL: p.URL})
	}
	if len(entries) == 0 {
		return noContextFallback
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return noContextFallback
	}
	return string(b)
}

func draftPrompt(in draftInput) string {
	purpose := strings.TrimSpace(in.Purpose)
	if purpose == "" {
		purpose = DefaultPurpose
	}
	var b strings.Builder
	fmt.Fprintf(&b, "------- Onderwerp ---------\n%s\n%s\n\n", in.Title, in.FormData.JSON())
	b.WriteString("----- Begin instructies -----\n")
	fmt.Fprintf(&b, "MODULE INSTRUCTIES:\n%s\n\n", in.PromptTemplate)
	fmt.Fprintf(&b, "ORG INSTRUCTIES:\n%s\n\n", in.OrgPrompt)
	fmt.Fprintf(&b, "MODULE + ORG INSTRUCTIES:\n%s\n", in.AccessPrompt)
	b.WriteString("----- Einde instructies -----\n\n")
	fmt.Fprintf(&b, "%s en probeer GEEN TABELLEN TE MAKEN.\n\n", formatInstruction(in.Format))
	b.WriteString("----- Extra Context -----\n")
	b.WriteString("If there is extra content always try to add links to the content. The urls are defined as \"url\" in the context.\n")
	fmt.Fprintf(&b, "%s\n\n", contextJSON(in.Context))
	b.WriteString("----- Internet Search -----\n")
	b.WriteString("Below you can find relevant information that was found by searching the internet. Always try to include current events and topics in the article if any relevant information is found.\n")
	fmt.Fprintf(&b, "%s\n\n", in.InternetSearch)
	fmt.Fprintf(&b, "----- Module Purpose -----\n%s\n", purpose)
	return b.String()
}

func segmentPrompt(draft string) string {
	return `Je bent een expert in het vinden van afbeeldingen die perfect aansluiten bij een tekst.
Voor iedere paragraaf of subkop in het onderstaande artikel maak je één beschrijving ("beschrijving_afbeelding") van het ideale beeld.

Specifiek zijn is verplicht:
- Noem expliciet bloem- of plantensoorten (Nederlandse en/of Latijnse naam).
- Beschrijf dominante of contrasterende kleuren.
- Vermeld setting of omgeving (kas, weide, huiskamer, studio).
- Benoem perspectief of camerastandpunt (macro, flatlay, close-up).
- Voeg eventuele handeling of sfeer toe (dauwdruppels, zacht tegenlicht).

Vermijd vage termen als "bloemen", "boeket" of "mooie planten".
Schrijf maximaal twee zinnen per beschrijving, zonder opsommingen en zonder merknamen tenzij die expliciet in de tekst staan.

=== Artikel ===
` + draft + `

Geef uitsluitend geldig JSON terug in het volgende formaat:
{
  "paragraphs": [
    {
      "beschrijving_afbeelding": "Gedetailleerde beschrijving van het gewenste beeld, met specifieke soorten, kleuren en setting",
      "paragraaf": "De paragraaf waar deze beschrijving op slaat"
    }
  ]
}`
}

func recomposePrompt(format models.OutputFormat, draft string, urls []string) string {
	if urls == nil {
		urls = []string{}
	}
	list, err := json.Marshal(urls)
	if err != nil {
		list = []byte("[]")
	}
	return fmt.Sprintf(`We hebben een draft artikel geschreven en daar achteraf afbeeldingen bij gevonden. Aan jou de taak om de afbeeldingen op de relevante plekken aan het artikel toe te voegen.
%s.
------ Hieronder vind je het artikel -------
%s

------ Hieronder vind je de afbeeldingen -------
%s`, formatInstruction(format), draft, list)
}

func validationPrompt(rules string, fd models.FormData) string {
	quoted, err := json.Marshal(rules)
	if err != nil {
		quoted = []byte(`""`)
	}
	return fmt.Sprintf(`Aan jou de taak om te gaan valideren of de form data correct is. Dit ga je doen op basis van de volgende regels:
%s

-------------- EIND REGELS EN BEGIN FORM DATA --------------
Hier is de form data die je moet valideren:
%s

-------------- EIND FORM DATA BEGIN JSON FORMAT --------------
Antwoord met valid wanneer er geen brekende of kritieke fouten zijn.
Als er wel grote of brekende fouten zijn, geef dan aan wat de fout is en geef beknopte en actiegerichte feedback.
{
    "valid": true,
    "feedback": ["feedback1", "feedback2"]
}`, quoted, fd.JSON())
}
