// internal/normalize/rules.go
package normalize

// The normalization engine is driven by the declarative tables in this file.
// Adding a city alias, an industry trigger, or a size synonym is a data change
// only; the matchers in engine.go never need to be touched.

// cityEntry maps a canonical city to its known aliases (Latin-script
// variants, common misspellings, transliterations, Devanagari spellings) and
// to the region bucket used by anonymized exports.
type cityEntry struct {
	Canonical string
	Region    string
	Aliases   []string
}

var cityTable = []cityEntry{
	{"Mumbai", "Maharashtra", []string{"mumbai", "bombay", "bombai", "bambai", "मुंबई", "मुम्बई", "बंबई"}},
	{"Delhi", "Delhi NCR", []string{"delhi", "new delhi", "dilli", "dehli", "दिल्ली", "नई दिल्ली"}},
	{"Bengaluru", "Karnataka", []string{"bengaluru", "bangalore", "banglore", "bangaluru", "बैंगलोर", "बेंगलुरु"}},
	{"Hyderabad", "Telangana", []string{"hyderabad", "hydrabad", "हैदराबाद"}},
	{"Chennai", "Tamil Nadu", []string{"chennai", "madras", "चेन्नई"}},
	{"Kolkata", "West Bengal", []string{"kolkata", "calcutta", "kolkatta", "कोलकाता"}},
	{"Pune", "Maharashtra", []string{"pune", "poona", "पुणे"}},
	{"Ahmedabad", "Gujarat", []string{"ahmedabad", "amdavad", "ahmadabad", "अहमदाबाद"}},
	{"Surat", "Gujarat", []string{"surat", "सूरत"}},
	{"Jaipur", "Rajasthan", []string{"jaipur", "जयपुर"}},
	{"Lucknow", "Uttar Pradesh", []string{"lucknow", "lakhnau", "लखनऊ"}},
	{"Kanpur", "Uttar Pradesh", []string{"kanpur", "कानपुर"}},
	{"Nagpur", "Maharashtra", []string{"nagpur", "नागपुर"}},
	{"Indore", "Madhya Pradesh", []string{"indore", "इंदौर"}},
	{"Bhopal", "Madhya Pradesh", []string{"bhopal", "भोपाल"}},
	{"Patna", "Bihar", []string{"patna", "पटना"}},
	{"Ludhiana", "Punjab", []string{"ludhiana", "लुधियाना"}},
	{"Agra", "Uttar Pradesh", []string{"agra", "आगरा"}},
	{"Varanasi", "Uttar Pradesh", []string{"varanasi", "banaras", "benares", "kashi", "वाराणसी", "बनारस"}},
	{"Coimbatore", "Tamil Nadu", []string{"coimbatore", "kovai", "कोयंबटूर"}},
	{"Kochi", "Kerala", []string{"kochi", "cochin", "कोच्चि"}},
	{"Chandigarh", "Punjab", []string{"chandigarh", "चंडीगढ़"}},
	{"Guwahati", "Assam", []string{"guwahati", "gauhati", "गुवाहाटी"}},
	{"Visakhapatnam", "Andhra Pradesh", []string{"visakhapatnam", "vizag", "विशाखापत्तनम"}},
	{"Nashik", "Maharashtra", []string{"nashik", "nasik", "नासिक"}},
}

// industryRule collapses free-text business descriptions onto the closed
// industry taxonomy. Rules are evaluated in priority order (ascending); the
// first rule with a trigger substring present in the lowercased input wins,
// so specific categories must sort before general ones.
type industryRule struct {
	Priority int
	Category string
	Triggers []string
}

var industryRules = []industryRule{
	{10, "Manufacturing - Textiles", []string{"textile", "garment", "apparel", "kapda", "कपड़ा", "कपड़े", "weaving", "powerloom", "handloom fabric", "hosiery"}},
	{20, "Retail - Grocery", []string{"kirana", "kiraana", "किराना", "किराने", "grocery", "groceries", "general store", "provision store"}},
	{30, "Food & Beverage", []string{"restaurant", "dhaba", "ढाबा", "catering", "bakery", "mithai", "sweet shop", "tiffin", "food stall", "khana", "खाना", "food business", "beverage"}},
	{40, "Agriculture", []string{"farming", "farmer", "kheti", "खेती", "kisan", "किसान", "dairy", "poultry", "agro", "crop", "horticulture"}},
	{50, "Handicrafts", []string{"handicraft", "hastkala", "हस्तकला", "artisan", "handloom", "pottery", "craft"}},
	{60, "Services - IT", []string{"software", "it services", "web develop", "app develop", "computer", "digital marketing", "data entry"}},
	{70, "Healthcare", []string{"clinic", "pharmacy", "chemist", "medical store", "hospital", "दवा", "pathology"}},
	{80, "Education", []string{"school", "coaching", "tuition", "training institute", "education"}},
	{90, "Construction", []string{"construction", "builder", "contractor", "civil work", "निर्माण"}},
	{100, "Transport & Logistics", []string{"transport", "logistics", "trucking", "courier", "delivery service", "travels"}},
	{110, "Manufacturing - General", []string{"manufactur", "factory", "karkhana", "कारखाना", "production unit", "mill", "fabricat", "processing unit"}},
	{120, "Trading", []string{"trading", "trader", "wholesale", "distributor", "vyapar", "व्यापार", "import", "export"}},
	{130, "Retail - General", []string{"shop", "dukaan", "dukan", "दुकान", "store", "retail", "selling", "बेचता", "बेचती"}},
	{140, "Services - General", []string{"service", "repair", "salon", "parlour", "tailor", "darzi", "laundry", "consultancy"}},
}

// sizeSynonym maps a language-spanning size keyword to a canonical tier.
// Matching picks the longest trigger found anywhere in the hint, so
// "small-medium" beats "small".
type sizeSynonym struct {
	Trigger string
	Size    string
}

var sizeSynonyms = []sizeSynonym{
	{"chota", SizeMicro}, {"chhota", SizeMicro}, {"छोटा", SizeMicro}, {"छोटी", SizeMicro},
	{"small", SizeMicro}, {"nano", SizeMicro}, {"solo", SizeMicro}, {"tiny", SizeMicro}, {"micro", SizeMicro},
	{"madhyam", SizeSmall}, {"मध्यम", SizeSmall}, {"growing", SizeSmall}, {"small-medium", SizeSmall},
	{"bada", SizeMedium}, {"बड़ा", SizeMedium}, {"बड़ी", SizeMedium}, {"large", SizeMedium},
	{"established", SizeMedium}, {"medium", SizeMedium}, {"big", SizeMedium},
}

// Employee-count and turnover tier thresholds. Turnover figures are whole
// rupees (1 crore = 10,000,000).
const (
	microEmployeeMax = 10 // exclusive
	smallEmployeeMax = 50 // exclusive
	microTurnoverMax = 10_000_000
	smallTurnoverMax = 100_000_000
)
