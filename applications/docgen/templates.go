package docgen

const eventInvestigationTemplate = `事件調查表
-----------------------------------
Profile ID: {{.Profile.ID}}
Department: {{.Profile.Department}}
Employee: {{.Profile.EmployeeRef}}
Event Date: {{.Profile.EventDate.Format "2006-01-02"}}
Event Location: {{.Profile.EventLocation}}
Train Number: {{.Profile.TrainNumber}}
Event Title: {{.Profile.EventTitle}}

Summary:
{{.Summary}}

Root Cause:
{{.RootCause}}

Checklist: {{.ChecklistGlyphs}}
`

const personnelInterviewTemplate = `人事面談紀錄
-----------------------------------
Profile ID: {{.Profile.ID}}
Department: {{.Profile.Department}}
Employee: {{.Profile.EmployeeRef}}
Event Date: {{.Profile.EventDate.Format "2006-01-02"}}

Interviewee: {{.IntervieweeName}} ({{.IntervieweeRole}})
Follow-up required: {{.FollowUpRequired}}

Transcript:
{{.Transcript}}
`

const correctiveMeasuresTemplate = `改善措施表
-----------------------------------
Profile ID: {{.Profile.ID}}
Department: {{.Profile.Department}}
Employee: {{.Profile.EmployeeRef}}
Event Date: {{.Profile.EventDate.Format "2006-01-02"}}

Measures:
{{.MeasuresDescription}}

Responsible Party: {{.ResponsibleParty}}
Due Date: {{.DueDate}}
Verified At: {{.VerifiedAt}}
`

const assessmentNoticeTemplate = `考核通知書
-----------------------------------
Profile ID: {{.Profile.ID}}
Department: {{.Profile.Department}}
Employee: {{.Profile.EmployeeRef}}
Event Date: {{.Profile.EventDate.Format "2006-01-02"}}

Standard Code: {{.StandardCode}}

Notice:
{{.NoticeText}}

Acknowledged At: {{.AcknowledgedAt}}
`
