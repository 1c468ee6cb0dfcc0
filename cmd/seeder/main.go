package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"iter"
	"log/slog"
	"os"

	"github.com/poiesic/tradmap"
	"github.com/poiesic/tradmap/ai/mock"
	"github.com/poiesic/tradmap/core"
	"github.com/poiesic/tradmap/indexing"
	"github.com/poiesic/tradmap/storage"
	"github.com/poiesic/tradmap/storage/badger"
)

var entries = []*core.ClassificationEntry{
	{Code: "MG26", Title: "Fever of unknown origin", ParentCode: "MG2",
		Description:    "Elevated body temperature without an established cause",
		InclusionTerms: []string{"jwara", "fever", "pyrexia", "suram", "humma"}},
	{Code: "MG22", Title: "Fatigue", ParentCode: "MG2",
		Description:    "Lack of energy or persistent tiredness",
		InclusionTerms: []string{"tiredness", "exhaustion", "klama"}},
	{Code: "1F40", Title: "Malaria", ParentCode: "1F4",
		Description:    "Parasitic infection caused by Plasmodium and transmitted by mosquitoes",
		InclusionTerms: []string{"vishama jwara", "intermittent fever"},
		ExclusionTerms: []string{"dengue"}},
	{Code: "1D2Z", Title: "Dengue fever, unspecified", ParentCode: "1D2",
		Description:    "Viral fever transmitted by Aedes mosquitoes with severe joint pain",
		InclusionTerms: []string{"breakbone fever"}},
	{Code: "CA07", Title: "Acute upper respiratory infection", ParentCode: "CA0",
		Description:    "Infection of the nose, sinuses or throat",
		InclusionTerms: []string{"common cold", "pratishyaya", "nazla"}},
	{Code: "CA23", Title: "Asthma", ParentCode: "CA2",
		Description:    "Chronic inflammatory disease of the airways with wheezing and breathlessness",
		InclusionTerms: []string{"tamaka shwasa", "dama"}},
	{Code: "DA42", Title: "Gastritis", ParentCode: "DA4",
		Description:    "Inflammation of the stomach lining with burning epigastric pain",
		InclusionTerms: []string{"amlapitta", "hyperacidity"}},
	{Code: "ME05", Title: "Constipation", ParentCode: "ME0",
		Description:    "Infrequent or difficult passage of stool",
		InclusionTerms: []string{"vibandha", "qabz"}},
	{Code: "ME84", Title: "Low back pain", ParentCode: "ME8",
		Description:    "Pain localized to the lumbar region",
		InclusionTerms: []string{"katishoola", "lumbago"}},
	{Code: "FA20", Title: "Rheumatoid arthritis", ParentCode: "FA2",
		Description:    "Chronic autoimmune inflammation of the joints",
		InclusionTerms: []string{"amavata", "waja ul mafasil"}},
	{Code: "5A11", Title: "Type 2 diabetes mellitus", ParentCode: "5A1",
		Description:    "Chronic hyperglycaemia due to insulin resistance",
		InclusionTerms: []string{"madhumeha", "ziabetus"}},
	{Code: "7A00", Title: "Chronic insomnia", ParentCode: "7A0",
		Description:    "Persistent difficulty initiating or maintaining sleep",
		InclusionTerms: []string{"anidra", "sahar"}},
	{Code: "8A80", Title: "Migraine", ParentCode: "8A8",
		Description:    "Recurrent headache with throbbing pain and sensitivity to light",
		InclusionTerms: []string{"ardhavabhedaka", "shaqeeqa"}},
	{Code: "EA80", Title: "Atopic eczema", ParentCode: "EA8",
		Description:    "Chronic itchy inflammatory skin condition",
		InclusionTerms: []string{"vicharchika", "karappan"}},
}

var concepts = []core.Concept{
	{System: core.SystemAyurveda, Term: "Jwara", Description: "Fever with elevated body temperature",
		Properties: map[string]string{"dosha": "pitta"}},
	{System: core.SystemAyurveda, Term: "Amlapitta", Description: "Burning sensation in the stomach with sour belching",
		Properties: map[string]string{"dosha": "pitta"}},
	{System: core.SystemAyurveda, Term: "Amavata", Description: "Painful swelling of joints with stiffness"},
	{System: core.SystemAyurveda, Term: "Madhumeha", Description: "Excessive urination with sweet urine"},
	{System: core.SystemSiddha, Term: "Suram", Description: "Fever with body heat"},
	{System: core.SystemSiddha, Term: "Karappan", Description: "Itchy skin eruptions"},
	{System: core.SystemUnani, Term: "Humma", Description: "Fever due to excess heat"},
	{System: core.SystemUnani, Term: "Nazla", Description: "Running nose with catarrh"},
	{System: core.SystemUnani, Term: "Shaqeeqa", Description: "One sided headache"},
	{System: core.SystemYoga, Term: "Anidra", Description: "Inability to sleep"},
}

var (
	dbPath  = flag.String("db", "./tradmap.db", "database directory")
	srcFile = flag.String("src", "", "JSON file of classification entries to load instead of the built-in sample")
	embed   = flag.Bool("embed", false, "embed the corpus and knowledge base with deterministic mock vectors")
	dims    = flag.Int("dims", mock.DefaultDimensions, "vector size used with -embed")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// entriesFromFile returns an iterator over the entries of a JSON array file.
func entriesFromFile(filename string) (iter.Seq[*core.ClassificationEntry], error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var loaded []*core.ClassificationEntry
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, err
	}
	return entriesFromSlice(loaded), nil
}

// entriesFromSlice returns an iterator over a slice of entries.
func entriesFromSlice(list []*core.ClassificationEntry) iter.Seq[*core.ClassificationEntry] {
	return func(yield func(*core.ClassificationEntry) bool) {
		for _, entry := range list {
			if !yield(entry) {
				return
			}
		}
	}
}

// seedCorpus adds entries that are not already stored and returns how many were added.
func seedCorpus(ctx context.Context, corpus storage.CorpusRepository, source iter.Seq[*core.ClassificationEntry]) (int, error) {
	added := 0
	for entry := range source {
		_, err := corpus.GetEntry(ctx, entry.Code)
		if err == nil {
			slog.Debug("entry already present", "code", entry.Code)
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return added, err
		}
		if _, err := corpus.AddEntries(ctx, entry); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

func seedKnowledge(ctx context.Context, knowledge storage.KnowledgeRepository, embedder *mock.MockEmbedder) (int, error) {
	batch := make([]*core.KnowledgeEntry, 0, len(concepts))
	for _, concept := range concepts {
		entry := &core.KnowledgeEntry{Concept: concept}
		if embedder != nil {
			vector, err := embedder.EmbedText(ctx, tradmap.KnowledgeText(concept))
			if err != nil {
				return 0, err
			}
			entry.Vector = vector
		}
		batch = append(batch, entry)
	}
	saved, err := knowledge.SaveConcepts(ctx, batch...)
	return len(saved), err
}

func main() {
	store, err := badger.OpenStore(*dbPath)
	if err != nil {
		panic(err)
	}
	defer store.Close()

	ctx := context.Background()

	// Determine source of seed data
	source := entriesFromSlice(entries)
	if *srcFile != "" {
		source, err = entriesFromFile(*srcFile)
		if err != nil {
			panic(err)
		}
	}

	added, err := seedCorpus(ctx, store.Corpus, source)
	if err != nil {
		panic(err)
	}
	slog.Info("seeded corpus", "added", added)

	var embedder *mock.MockEmbedder
	if *embed {
		embedder = mock.NewMockEmbedder().WithDimensions(*dims)
		indexer, err := indexing.NewIndexer(store.Corpus, embedder, indexing.DefaultConfig(), os.Stdout)
		if err != nil {
			panic(err)
		}
		if _, err := indexer.Run(ctx); err != nil {
			panic(err)
		}
	}

	saved, err := seedKnowledge(ctx, store.Knowledge, embedder)
	if err != nil {
		panic(err)
	}
	slog.Info("seeded knowledge base", "concepts", saved)
}
