package domain

// Vendor export columns. Names follow the PitchBook-style export the panel is
// built from: entity prefix, underscore, field.
const (
	ColCompanyID                  = "CompanyID"
	ColCompanyName                = "CompanyName"
	ColCompanyEmployees           = "Company_Employees"
	ColCompanyYearFounded         = "Company_YearFounded"
	ColCompanyIndustrySector      = "Company_PrimaryIndustrySector"
	ColCompanyIndustryGroup       = "Company_PrimaryIndustryGroup"
	ColCompanyHQCity              = "Company_HQCity"
	ColCompanyHQState             = "Company_HQState_Province"
	ColCompanyHQCountry           = "Company_HQCountry"
	ColCompanyFinancingStatus     = "Company_CompanyFinancingStatus"
	ColPersonID                   = "PersonID"
	ColPersonFullName             = "Person_FullName"
	ColPersonGender               = "Person_Gender"
	ColPersonPositionLevel        = "Person_PrimaryPositionLevel"
	ColPersonPrimaryCompany       = "Person_PrimaryCompany"
	ColPersonPrimaryPosition      = "Person_PrimaryPosition"
	ColDealID                     = "DealID"
	ColDealDate                   = "Deal_DealDate"
	ColDealSize                   = "Deal_DealSize"
	ColDealType                   = "Deal_DealType"
	ColDealType2                  = "Deal_DealType2"
	ColDealClass                  = "Deal_DealClass"
	ColDealStatus                 = "Deal_DealStatus"
	ColDealBusinessStatus         = "Deal_BusinessStatus"
	ColDealSiteLocation           = "Deal_SiteLocation"
	ColInvestorID                 = "InvestorID"
	ColInvestorDealType           = "Investor_DealType"
	ColInvestorDealSize           = "Investor_DealSize"
	ColEducationInstitute         = "Education_Institute"
	ColEducationDegree            = "Education_Degree"
	ColEducationMajor             = "Education_Major"
	ColEducationMajorConc         = "Education_Major_Concentration"
	ColPrimaryCompanyID           = "PrimaryCompanyID"
	ColUniversityName             = "University_Name"
	ColUniversityUSRank           = "University US Rank"
	ColUniversityUSRankUnderscore = "University_US_Rank"
)

// Derived columns written by the pipeline.
const (
	ColEducationCategory  = "Education_Category"
	ColUniversityGroup    = "University_Group"
	ColEducationGroup     = "Education_Group"
	ColDealYear           = "Deal_Year"
	ColDealSizeNum        = "Deal_DealSize_num"
	ColLogDealSize        = "log_DealSize"
	ColEmployeesMissing   = "Employees_Missing"
	ColLogEmployees       = "log_Employees"
	ColAgeAtDeal          = "Age_at_Deal"
	ColMajorCategory      = "Major_Category"
	ColEducationRank      = "Education_Rank"
	ColTeamSize           = "TeamSize"
	ColShareIvy           = "Share_Ivy"
	ColShareTop8          = "Share_Top8"
	ColShareOther         = "Share_Other"
	ColShareSum           = "Share_Sum"
	ColAnyIvy             = "Any_Ivy"
	ColAnyTop8            = "Any_Top8"
	ColTeamEducationGroup = "Team_Education_Group"
	ColMaxPedigree        = "Max_Pedigree"
	ColFemaleShare        = "Female_Share"
	ColAnyFemale          = "Any_Female"
	ColTeamGender         = "Team_Gender"
	ColTeamMajorDominant  = "Team_Major_Dominant"
	ColTeamSTEMShare      = "Team_STEM_Share"
	ColTeamBusinessShare  = "Team_Business_Share"
	ColAnyCS              = "Any_CS"
	ColMaxEducationRank   = "Max_Education_Rank"
	ColMaxEducation       = "Max_Education"
	ColSyndicateSize      = "SyndicateSize"
	ColInvestorMissing    = "Investor_Missing"
	ColStageOrder         = "Stage_Order"
	ColRegion             = "Region"
	ColIvyVsTop8          = "Ivy_vs_Top8"
)

// Stage dummies. The deal types behind them live in the reference tables.
const (
	ColStageSeed  = "Stage_Seed"
	ColStageEarly = "Stage_Early"
	ColStageLater = "Stage_Later"
)

// Regression controls.
const (
	ColDealSizeControl      = "DealSize"
	ColLnDealSize           = "ln_DealSize"
	ColLnUniversityUSRank   = "ln_University_US_Rank"
	ColFemale               = "Female"
	ColPhDMD                = "PhD_MD"
	ColMBAJD                = "MBA_JD"
	ColMasters              = "Masters"
	ColIsTechHub            = "Is_Tech_Hub"
	ColVCSpend              = "Average_VC_Spend_HQ_Company"
	ColHasBoardExperience   = "Has_Board_Experience"
	ColHasTopTierVC         = "Has_Top_Tier_VC"
	ColSyndicateSizeControl = "Syndicate_Size"
	ColPriorDealCount       = "Prior_Deal_Count"
)

// Relation table columns not shared with the master file.
const (
	ColInvestorName     = "InvestorName"
	ColRelationDealDate = "DealDate"
)

// Lagged employee columns and the suffix given to the original counts.
const (
	ColLnEmployees            = "ln_Employees"
	ColEmployeesLagged        = "Employees_Lagged"
	ColEmployeesLagDays       = "Employees_Lag_Days"
	ColLnEmployeesLagged      = "ln_Employees_Lagged"
	ColEmployeesMissingLagged = "Employees_Missing_Lagged"
	SnapshotSuffix            = "_2022"
)

// Columns of the core_tables exports (Deal, EmployeeHistory) read by the
// controls and lag jobs.
const (
	ColCoreDealDate      = "DealDate"
	ColCoreDealType      = "DealType"
	ColCoreDealSize      = "DealSize"
	ColCoreDate          = "Date"
	ColCoreEmployeeCount = "EmployeeCount"
)
