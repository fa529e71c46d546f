package modelgen

// Built-in SQL model templates. Rendered with text/template; the ref()
// placeholders stay literal so the analytics tooling resolves them.

const dailyMetricTemplate = `{{"{{"}} config(materialized='table') {{"}}"}}

-- {{.Description}}

select
    date_trunc('day', order_date) as revenue_date,
    count(*) as order_count,
    sum(total_amount) as gross_revenue,
    sum(coalesce(discount_amount, 0)) as discounts,
    sum(coalesce(delivery_fee, 0)) as delivery_fees,
    sum(net_product_amount) as net_revenue
from {{"{{"}} ref('int_order_details') {{"}}"}}
where order_date is not null
group by 1
order by 1
`

const customerMartTemplate = `{{"{{"}} config(materialized='table') {{"}}"}}

-- {{.Description}}

select
    customer_email,
    min(customer_name) as customer_name,
    count(*) as order_count,
    sum(total_amount) as gross_revenue,
    sum(coalesce(discount_amount, 0)) as total_discounts,
    sum(net_product_amount) as net_revenue,
    min(order_date) as first_order_date,
    max(order_date) as last_order_date
from {{"{{"}} ref('int_order_details') {{"}}"}}
where customer_email is not null
group by customer_email
`

const stagingTemplate = `{{"{{"}} config(materialized='view') {{"}}"}}

-- {{.Description}}

select
    *,
    current_timestamp as loaded_at
from {{"{{"}} source('raw', '{{.Source}}') {{"}}"}}
where {{.KeyColumn}} is not null
`

const explorationTemplate = `{{"{{"}} config(materialized='view') {{"}}"}}

-- {{.Description}}
-- Exploratory model; refine the selection before promoting it to a mart.

select *
from {{"{{"}} ref('int_order_details') {{"}}"}}
limit 1000
`
