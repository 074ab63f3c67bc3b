package topicmodel

// stopWords are dropped by the vectoriser: common English function words plus
// claim boilerplate that appears in nearly every patent abstract.
var stopWords = []string{
	"a", "about", "above", "after", "again", "against", "all", "also", "am", "an",
	"and", "any", "are", "as", "at", "be", "because", "been", "before", "being",
	"below", "between", "both", "but", "by", "can", "could", "did", "do", "does",
	"doing", "down", "during", "each", "either", "few", "for", "from", "further",
	"had", "has", "have", "having", "he", "her", "here", "hers", "him", "his",
	"how", "i", "if", "in", "into", "is", "it", "its", "itself", "least", "less",
	"may", "more", "most", "must", "my", "no", "nor", "not", "of", "off", "on",
	"once", "one", "only", "or", "other", "our", "out", "over", "own", "same",
	"she", "should", "so", "some", "such", "than", "that", "the", "their",
	"them", "then", "there", "these", "they", "this", "those", "through", "to",
	"too", "two", "under", "until", "up", "upon", "very", "via", "was", "we",
	"were", "what", "when", "where", "whether", "which", "while", "who", "whom",
	"why", "will", "with", "within", "without", "would", "you", "your",
	// boilerplate
	"according", "comprising", "comprises", "comprise", "configured", "disclosed",
	"embodiment", "embodiments", "example", "first", "herein", "include",
	"includes", "including", "invention", "method", "methods", "plurality",
	"provide", "provided", "provides", "second", "thereof", "wherein",
}
