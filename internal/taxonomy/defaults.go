package taxonomy

import (
	"github.com/ppiankov/cliniprov/internal/model"
)

// DefaultVersion identifies the built-in cardiology taxonomy
const DefaultVersion = "cardiology-2025.1"

// Default builds the built-in cardiology taxonomy. Each call returns a new
// instance; callers build it once at startup and pass it down.
func Default() *Taxonomy {
	t, err := New(DefaultVersion, DefaultTables())
	if err != nil {
		panic("built-in taxonomy is invalid: " + err.Error())
	}
	return t
}

// DefaultTables returns a fresh copy of the built-in rule tables
func DefaultTables() []Table {
	return []Table{
		{
			Category: model.CategoryDiagnosis,
			Rules: []Rule{
				{NormalizedTerm: "Atrial Fibrillation", Triggers: []string{"atrial fibrillation", "AF", "AFib", "paroxysmal AF"}, Code: "I48", CodeSystem: model.CodeSystemICD10, RiskWeight: 2},
				{NormalizedTerm: "Acute Myocardial Infarction", Triggers: []string{"STEMI", "NSTEMI", "acute myocardial infarction", "myocardial infarction", "acute MI", "heart attack"}, Code: "I21.9", CodeSystem: model.CodeSystemICD10, RiskWeight: 4},
				{NormalizedTerm: "Coronary Artery Disease", Triggers: []string{"coronary artery disease", "CAD", "ischaemic heart disease", "ischemic heart disease", "IHD"}, Code: "I25.1", CodeSystem: model.CodeSystemICD10, RiskWeight: 3},
				{NormalizedTerm: "Heart Failure", Triggers: []string{"heart failure with reduced ejection fraction", "heart failure with preserved ejection fraction", "heart failure", "cardiac failure", "HFrEF", "HFpEF", "CCF"}, Code: "I50.9", CodeSystem: model.CodeSystemICD10, RiskWeight: 4},
				{NormalizedTerm: "Hypertension", Triggers: []string{"hypertension", "HTN"}, Code: "I10", CodeSystem: model.CodeSystemICD10, RiskWeight: 2},
				{NormalizedTerm: "Dyslipidaemia", Triggers: []string{"dyslipidaemia", "dyslipidemia", "hypercholesterolaemia", "hypercholesterolemia", "hyperlipidaemia"}, Code: "E78.5", CodeSystem: model.CodeSystemICD10, RiskWeight: 1},
				{NormalizedTerm: "Aortic Stenosis", Triggers: []string{"aortic stenosis"}, Code: "I35.0", CodeSystem: model.CodeSystemICD10, RiskWeight: 2},
				{NormalizedTerm: "Mitral Regurgitation", Triggers: []string{"mitral regurgitation"}, Code: "I34.0", CodeSystem: model.CodeSystemICD10, RiskWeight: 1},
				{NormalizedTerm: "Type 2 Diabetes Mellitus", Triggers: []string{"type 2 diabetes mellitus", "type 2 diabetes", "T2DM"}, Code: "E11.9", CodeSystem: model.CodeSystemICD10},
			},
		},
		{
			Category: model.CategoryProcedure,
			Rules: []Rule{
				{NormalizedTerm: "Coronary Angiography", Triggers: []string{"coronary angiogram", "coronary angiography", "angiogram", "angiography"}, Code: "38215", CodeSystem: model.CodeSystemMBS},
				{NormalizedTerm: "Percutaneous Coronary Intervention", Triggers: []string{"percutaneous coronary intervention", "PCI", "coronary stent", "stenting"}, Code: "38306", CodeSystem: model.CodeSystemMBS},
				{NormalizedTerm: "Transthoracic Echocardiography", Triggers: []string{"transthoracic echocardiogram", "transthoracic echocardiography", "TTE", "echocardiogram"}, Code: "55118", CodeSystem: model.CodeSystemMBS},
				{NormalizedTerm: "Electrocardiogram", Triggers: []string{"electrocardiogram", "ECG", "EKG"}, Code: "11714", CodeSystem: model.CodeSystemMBS},
				{NormalizedTerm: "Coronary Artery Bypass Graft", Triggers: []string{"coronary artery bypass graft", "CABG", "bypass surgery"}, Code: "38497", CodeSystem: model.CodeSystemMBS},
			},
		},
		{
			Category: model.CategoryMedication,
			Rules: []Rule{
				{NormalizedTerm: "Beta-blocker", Triggers: []string{"beta-blocker", "beta blocker", "metoprolol", "bisoprolol", "atenolol", "carvedilol", "nebivolol"}},
				{NormalizedTerm: "Statin", Triggers: []string{"statin", "atorvastatin", "rosuvastatin", "simvastatin", "pravastatin"}},
				{NormalizedTerm: "Aspirin", Triggers: []string{"aspirin"}},
				{NormalizedTerm: "DOAC", Triggers: []string{"DOAC", "apixaban", "rivaroxaban", "dabigatran", "edoxaban"}},
				{NormalizedTerm: "Warfarin", Triggers: []string{"warfarin"}},
				{NormalizedTerm: "P2Y12 Inhibitor", Triggers: []string{"clopidogrel", "ticagrelor", "prasugrel"}},
				{NormalizedTerm: "ACE Inhibitor", Triggers: []string{"ACE inhibitor", "perindopril", "ramipril", "lisinopril", "enalapril"}},
				{NormalizedTerm: "Angiotensin Receptor Blocker", Triggers: []string{"candesartan", "irbesartan", "telmisartan", "valsartan"}},
				{NormalizedTerm: "Diuretic", Triggers: []string{"diuretic", "frusemide", "furosemide", "spironolactone"}},
				{NormalizedTerm: "SGLT2 Inhibitor", Triggers: []string{"SGLT2 inhibitor", "empagliflozin", "dapagliflozin"}},
			},
		},
		{
			Category: model.CategoryFinding,
			Rules: []Rule{
				{NormalizedTerm: "LV Dysfunction", Triggers: []string{"reduced LV function", "LV dysfunction", "left ventricular dysfunction", "reduced left ventricular function", "impaired LV function"}},
				{NormalizedTerm: "RWMA", Triggers: []string{"regional wall motion abnormalities", "regional wall motion abnormality", "RWMA"}},
				{NormalizedTerm: "Diastolic Dysfunction", Triggers: []string{"diastolic dysfunction"}},
				{NormalizedTerm: "Left Ventricular Hypertrophy", Triggers: []string{"left ventricular hypertrophy", "LVH"}},
				{NormalizedTerm: "Pericardial Effusion", Triggers: []string{"pericardial effusion"}},
				{NormalizedTerm: "ST Elevation", Triggers: []string{"ST elevation", "ST-elevation"}},
			},
		},
		{
			Category: model.CategoryRiskFactor,
			Rules: []Rule{
				{NormalizedTerm: "Diabetes Mellitus", Triggers: []string{"diabetes mellitus", "diabetes", "diabetic"}, RiskWeight: 2},
				{NormalizedTerm: "Hypertension", Triggers: []string{"hypertension", "high blood pressure"}, RiskWeight: 2},
				{NormalizedTerm: "Smoking", Triggers: []string{"smoker", "smoking", "smokes"}, RiskWeight: 1},
				{NormalizedTerm: "Former Smoker", Triggers: []string{"ex-smoker", "former smoker"}, RiskWeight: 0.5},
				{NormalizedTerm: "Family History of CAD", Triggers: []string{"family history of coronary disease", "family history of coronary artery disease", "family history of CAD", "family history of premature coronary disease", "family history of IHD"}, RiskWeight: 1},
				{NormalizedTerm: "Dyslipidaemia", Triggers: []string{"dyslipidaemia", "dyslipidemia", "high cholesterol"}, RiskWeight: 1},
				{NormalizedTerm: "Obesity", Triggers: []string{"obesity", "obese"}, RiskWeight: 1},
				{NormalizedTerm: "Chronic Kidney Disease", Triggers: []string{"chronic kidney disease", "CKD"}, RiskWeight: 2},
			},
		},
	}
}
