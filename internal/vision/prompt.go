package vision

import "fmt"

const identifyPrompt = `Analyze this desktop screenshot and identify all clickable UI elements.
For each element provide:
- type: The type of UI element (icon, button, menu, checkbox, etc.)
- name: A descriptive name that uniquely identifies this element
- bounding_box: Coordinates as [x1, y1, x2, y2] where (x1,y1) is top-left and (x2,y2) is bottom-right
- description: A brief description of what this element does or represents

Format your response as a JSON array of objects, each with the properties listed above.
Be precise with the bounding boxes to ensure they tightly contain only the specific element.
Focus on desktop icons, taskbar buttons, menus, and application windows.
Respond ONLY with the JSON array, no explanation or markdown.`

const selectClickTemplate = `User Request: %q

Desktop Elements: %s

Based on the user's request, which desktop element should be clicked?
Return a JSON object with:
{
    "target_element": "name of element to click",
    "coordinates": [x, y],
    "click_type": "single" or "double",
    "reasoning": "brief explanation"
}

The coordinates must be the center of the chosen element's bounding box.
If no suitable element is found, return {"error": "reason"}.
Respond ONLY with the JSON object.`

const selectTargetTemplate = `User Request: %q

Available Desktop Elements: %s

Based on the user's request, which desktop element should be interacted with?
Return a JSON object with:
{
    "target_element": "name of element to interact with",
    "action": "click",
    "action_parameters": {},
    "reasoning": "brief explanation"
}

Available actions are:
- click: Simple click on element
- double_click: Double-click on element
- right_click: Right-click on element
- drag: Drag from the target to another element (action_parameters needs "end_target")
- type: Type text (action_parameters needs "content" with the text)
- hotkey: Press a keyboard shortcut (action_parameters needs "keys", e.g. ["ctrl", "c"])
- scroll: Scroll in a direction (action_parameters needs "direction": "up", "down", "left" or "right")

If no suitable element is found, return {"error": "reason"}.
Respond ONLY with the JSON object.`

const planActionTemplate = `User Request: %q

Available Desktop Elements: %s

Based on the user's request, determine the best action to take from the following available actions:
[
  "click(start_box='[x1, y1, x2, y2]')",
  "left_double(start_box='[x1, y1, x2, y2]')",
  "right_single(start_box='[x1, y1, x2, y2]')",
  "drag(start_box='[x1, y1, x2, y2]', end_box='[x3, y3, x4, y4]')",
  "hotkey(key='key1+key2')",
  "type(content='text to type')",
  "scroll(start_box='[x1, y1, x2, y2]', direction='down or up or right or left')",
  "wait()",
  "finished()",
  "call_user(message='Help needed')"
]

Return a JSON object with:
{
    "action_name": "name of action function to call",
    "parameters": {
        "param1": "value1"
    },
    "reasoning": "brief explanation of why this action was chosen"
}

For element selection, use the appropriate bounding_box from the provided elements.
In typed content, \n means pressing Enter.
If no suitable action is possible, return {"error": "reason"}.
Respond ONLY with the JSON object.`

func buildSelectClickPrompt(instruction, elementsJSON string) string {
	return fmt.Sprintf(selectClickTemplate, instruction, elementsJSON)
}

func buildSelectTargetPrompt(instruction, elementsJSON string) string {
	return fmt.Sprintf(selectTargetTemplate, instruction, elementsJSON)
}

func buildPlanPrompt(instruction, elementsJSON string) string {
	return fmt.Sprintf(planActionTemplate, instruction, elementsJSON)
}
