package catalog

// defaultTools es la tabla de configuración del catálogo de producción.
// El frontend muestra estas mismas definiciones via GET /v1/tools.
var defaultTools = []Tool{
	// ─── Marketing ───
	{
		CategoryID: "marketing",
		ToolID:     "seo-keyword-research",
		Title:      "SEO Keyword Research",
		MaxTokens:  1024,
		Fields: []Field{
			{ID: "keyword", Label: "Seed keyword", Required: true},
			{ID: "industry", Label: "Industry", Required: true},
			{ID: "content_type", Label: "Content type", Required: false},
		},
		System: "You are an SEO strategist. Produce practical, current keyword research. " +
			"Group keywords by intent and include estimated difficulty where relevant.",
		Template: "Run a keyword research session for the seed keyword \"{{keyword}}\" " +
			"in the {{industry}} industry. Target content type: {{content_type}}. " +
			"Return primary keywords, long-tail variations and related questions.",
	},
	{
		CategoryID: "marketing",
		ToolID:     "blog-outline",
		Title:      "Blog Post Outline",
		MaxTokens:  1024,
		Fields: []Field{
			{ID: "topic", Label: "Topic", Required: true},
			{ID: "audience", Label: "Target audience", Required: false},
		},
		System: "You are a senior content marketer. Outlines must be skimmable and " +
			"structured with H2/H3 headings.",
		Template: "Create a detailed blog post outline about \"{{topic}}\" " +
			"aimed at {{audience}}. Include a hook, sections with key points, and a CTA.",
	},
	{
		CategoryID: "marketing",
		ToolID:     "ad-copy",
		Title:      "Ad Copy Generator",
		MaxTokens:  768,
		Fields: []Field{
			{ID: "product", Label: "Product or service", Required: true},
			{ID: "platform", Label: "Ad platform", Required: true},
			{ID: "tone", Label: "Tone of voice", Required: false},
		},
		System: "You are a direct-response copywriter. Respect the character limits " +
			"of the target platform and always include a clear CTA.",
		Template: "Write 3 ad variations for {{product}} to run on {{platform}}. " +
			"Tone: {{tone}}. Include headline, primary text and CTA for each variation.",
	},
	{
		CategoryID: "marketing",
		ToolID:     "landing-copy",
		Title:      "Landing Page Copy",
		MaxTokens:  1536,
		Fields: []Field{
			{ID: "product", Label: "Product or service", Required: true},
			{ID: "value_prop", Label: "Main value proposition", Required: true},
		},
		System: "You are a conversion copywriter. Write benefit-led copy with short " +
			"sentences and concrete claims.",
		Template: "Write landing page copy for {{product}}. Core value proposition: " +
			"{{value_prop}}. Include hero headline, subheadline, 3 benefit blocks, " +
			"social proof section and final CTA.",
	},

	// ─── Sales ───
	{
		CategoryID: "sales",
		ToolID:     "cold-email",
		Title:      "Cold Email Writer",
		MaxTokens:  768,
		Fields: []Field{
			{ID: "prospect_role", Label: "Prospect role", Required: true},
			{ID: "offer", Label: "Your offer", Required: true},
			{ID: "pain_point", Label: "Pain point", Required: false},
		},
		System: "You are an SDR coach. Cold emails must be under 120 words, " +
			"personalized and end with a low-friction ask.",
		Template: "Write a cold email to a {{prospect_role}} offering {{offer}}. " +
			"Pain point to reference: {{pain_point}}. Include subject line.",
	},
	{
		CategoryID: "sales",
		ToolID:     "follow-up-sequence",
		Title:      "Follow-up Sequence",
		MaxTokens:  1536,
		Fields: []Field{
			{ID: "context", Label: "Previous interaction", Required: true},
			{ID: "goal", Label: "Goal of the sequence", Required: true},
		},
		System: "You are a sales enablement specialist. Sequences escalate value, " +
			"never pressure.",
		Template: "Write a 4-touch follow-up sequence. Context: {{context}}. " +
			"Goal: {{goal}}. Vary the channel and angle of each touch.",
	},

	// ─── Social ───
	{
		CategoryID: "social",
		ToolID:     "post-generator",
		Title:      "Social Post Generator",
		MaxTokens:  768,
		Fields: []Field{
			{ID: "topic", Label: "Topic", Required: true},
			{ID: "network", Label: "Social network", Required: true},
		},
		System: "You are a social media manager. Match the native format and tone " +
			"of the target network.",
		Template: "Write 3 post options about \"{{topic}}\" for {{network}}. " +
			"Include relevant hashtags where the network uses them.",
	},
	{
		CategoryID: "social",
		ToolID:     "content-calendar",
		Title:      "Content Calendar",
		MaxTokens:  2048,
		Fields: []Field{
			{ID: "brand", Label: "Brand description", Required: true},
			{ID: "cadence", Label: "Posts per week", Required: true},
		},
		System: "You are a content strategist. Calendars balance promotional, " +
			"educational and engagement content.",
		Template: "Build a 2-week content calendar for {{brand}} posting {{cadence}} " +
			"times per week. For each slot give format, hook and CTA.",
	},

	// ─── Branding ───
	{
		CategoryID: "branding",
		ToolID:     "tagline",
		Title:      "Tagline Generator",
		MaxTokens:  512,
		Fields: []Field{
			{ID: "brand", Label: "Brand description", Required: true},
			{ID: "personality", Label: "Brand personality", Required: false},
		},
		System: "You are a brand strategist. Taglines are short, memorable and " +
			"free of clichés.",
		Template: "Generate 10 tagline options for: {{brand}}. " +
			"Brand personality: {{personality}}.",
	},
	{
		CategoryID: "branding",
		ToolID:     "brand-voice",
		Title:      "Brand Voice Guide",
		MaxTokens:  1536,
		Fields: []Field{
			{ID: "brand", Label: "Brand description", Required: true},
			{ID: "audience", Label: "Target audience", Required: true},
		},
		System: "You are a brand strategist. Voice guides must be actionable: " +
			"do/don't examples over abstract adjectives.",
		Template: "Create a brand voice guide for {{brand}} targeting {{audience}}. " +
			"Include tone attributes, vocabulary do/don'ts and 3 sample rewrites.",
	},
}
