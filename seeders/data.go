package seeders

import "sales-crm/internal/entities"

// lookupData holds the starting values of every lookup table.
var lookupData = map[entities.LookupTable][]string{
	entities.LookupCustomerTypes:   {"Individual", "Business", "Government", "Non-profit"},
	entities.LookupBusinessTypes:   {"Retail", "Wholesale", "Manufacturing", "Services", "IT", "Education", "Healthcare"},
	entities.LookupCompanySizes:    {"1-10", "11-50", "51-200", "201-1000", "1000+"},
	entities.LookupProvinces:       {"North", "South", "East", "West", "Central"},
	entities.LookupLeadSources:     {"Website", "Referral", "Cold call", "Trade show", "Social media", "Advertising"},
	entities.LookupStages:          {"New", "Contacted", "Qualified", "Proposal", "Negotiation", "Won", "Lost"},
	entities.LookupTemperatures:    {"Cold", "Warm", "Hot"},
	entities.LookupContactStatuses: {"Not contacted", "Reached", "No answer", "Call back", "Do not contact"},
	entities.LookupProducts:        {"CRM Basic", "CRM Pro", "CRM Enterprise", "Onboarding", "Support plan"},
}
