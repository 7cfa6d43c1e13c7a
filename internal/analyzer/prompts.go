package analyzer

const contextSystem = "You are a competitive intelligence analyst. Analyze companies from their website content and return valid JSON matching the requested schema. Use null for fields you cannot determine."

const contextPrompt = `Analyze the company "%s" (website: %s) and produce a structured profile.

Website content:
%s

Return a valid JSON object:
{
  "companyName": "...",
  "businessModel": "e.g. B2B SaaS, marketplace, agency",
  "industry": "...",
  "targetAudience": {"primary": "...", "segments": ["..."], "companySize": "..."},
  "valueProposition": "...",
  "coreOfferings": {"primaryProduct": "...", "secondaryProducts": ["..."], "keyFeatures": ["..."]},
  "pricingStrategy": {"model": "...", "startingPrice": 0, "currency": "USD", "billingCycle": "monthly", "freeTier": false},
  "competitivePositioning": {"mainDifferentiators": ["..."], "positioningStatement": "...", "marketFocus": "..."}
}`

const discoverSystem = "You are a competitive intelligence analyst. Identify direct competitors for the described company and return valid JSON."

const discoverPrompt = `Find the top direct competitors of "%s" (website: %s).

Company profile:
- Business model: %s
- Industry: %s
- Target audience: %s
- Pricing: %s starting at %.0f %s
- Key features: %s

Bias discovery toward companies with a comparable business model and audience.
Return a valid JSON array of up to 10 candidates:
[{"name": "...", "website": "...", "description": "...", "relevanceScore": 1-10, "businessModelMatch": "exact|similar|adjacent"}]`

const competitorSystem = "You are a competitive intelligence analyst. Compare the named competitor against the subject company and return valid JSON matching the requested schema."

const competitorPrompt = `Compare the competitor "%s" (website: %s) against the subject company "%s".

Subject profile:
- Business model: %s
- Industry: %s
- Value proposition: %s
- Key features: %s
- Pricing: %s starting at %.0f %s

Competitor website content:
%s

Compare across six dimensions: pricing comparison, feature gaps in both
directions, positioning difference, audience overlap, competitive advantages,
and differentiation opportunities for the subject.

Return a valid JSON object:
{
  "description": "...",
  "positioning": "...",
  "pricingModel": "...",
  "pricingStart": 0,
  "strengths": ["..."],
  "weaknesses": ["..."],
  "features": {"free_trial": false, "api_access": false, "integrations": false, "analytics": false, "mobile_app": false, "sso": false, "custom_branding": false, "priority_support": false},
  "targetAudience": "...",
  "valueProposition": "...",
  "comparativeInsights": {
    "pricingComparison": "cheaper|similar|more_expensive",
    "featureGapsTheyHave": ["..."],
    "featureGapsUserHas": ["..."],
    "positioningDifference": "...",
    "targetAudienceOverlap": "high|medium|low",
    "differentiationOpportunities": ["..."],
    "competitiveThreatLevel": "high|medium|low",
    "winRateFactors": ["..."]
  }
}`
