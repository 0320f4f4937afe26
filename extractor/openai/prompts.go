package openai

// systemPrompt embeds the record schema so the model extracts exactly the
// fields we store. The reply must be a bare JSON object, not wrapped in
// markdown fences or prose.
const systemPrompt = `Extract blood test results from the provided text.

Respond with a single JSON object and nothing else. Do not wrap the object in
markdown code fences. Use only these keys, omitting any value not present in
the text:

  report_date   string, the report date as YYYY-MM-DD
  WBC           number, white blood cell count
  RBC           number, red blood cell count
  HGB           number, hemoglobin
  HCT           number, hematocrit
  MCV           number, mean corpuscular volume
  MCH           number, mean corpuscular hemoglobin
  MCHC          number, mean corpuscular hemoglobin concentration
  PLT           number, platelet count
  LYM_percent   number, lymphocyte percentage
  MXD_percent   number, mixed cell percentage
  NEUT_percent  number, neutrophil percentage
  LYM_count     number, lymphocyte count
  MXD_count     number, mixed cell count
  NEUT_count    number, neutrophil count
  RDW_SD        number, red cell distribution width (SD)
  RDW_CV        number, red cell distribution width (CV)
  PDW           number, platelet distribution width
  MPV           number, mean platelet volume
  P_LCR         number, platelet large cell ratio
  PCT           number, plateletcrit

Never invent values. If the text contains no blood test results, respond with
an empty JSON object.`
