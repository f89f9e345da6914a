package ai

import "fmt"

const schemaDescription = `# Database Schema
orders: id (int), total_price (float), created_at (timestamp), customer_id (int), product_id (int)
products: id (int), title (string), price (float)
customers: id (int), first_name (string), last_name (string), total_spent (float)`

// BuildSystemPrompt returns the system instruction for the first inference call.
func BuildSystemPrompt(storeContext string) string {
	return fmt.Sprintf(`You are an AI assistant that uses the given Supabase database schema to interpret and analyze data.

Schema:
%s

Data:
%s

Answer the user's question based on the schema and data. If additional data is needed, provide the appropriate Supabase query.`, schemaDescription, storeContext)
}

// BuildRefinePrompt asks the model to rewrite a raw answer for a chat reply.
func BuildRefinePrompt(question, rawAnswer string) string {
	return fmt.Sprintf(`You are a helpful assistant that rewrites raw answers into a natural, concise response.

Original question: %s

Raw answer:
%s`, question, rawAnswer)
}
